package presencesvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFormatPrice covers the magnitude table and comma-grouping from
// scenario S1 in spec.md §8.
func TestFormatPrice(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{65432.1, "65,432"},
		{1000, "1,000"},
		{1234567.89, "1,234,568"},
		{999.997, "1,000.00"},
		{432.19, "432.19"},
		{100, "100.00"},
		{42.567, "42.567"},
		{1.2347, "1.235"},
		{0.12347, "0.1235"},
		{0.00099, "0.0010"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatPrice(tc.price), "price=%v", tc.price)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1", "1"},
		{"12", "12"},
		{"123", "123"},
		{"1234", "1,234"},
		{"1234567", "1,234,567"},
		{"-1234", "-1,234"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, groupThousands(tc.in), "in=%q", tc.in)
	}
}
