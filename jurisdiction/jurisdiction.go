// Package jurisdiction holds the district to sub-district directory that scopes
// officer authority.
package jurisdiction

import (
	"sort"
	"strings"
)

// Directory maps a district to its sub-districts
type Directory map[string][]string

var defaultDirectory = Directory{
	"Dhaka":      {"Dhaka North", "Dhaka South", "Gazipur", "Narayanganj", "Narsingdi"},
	"Chittagong": {"Chittagong", "Cox's Bazar", "Rangamati", "Bandarban", "Khagrachari"},
	"Rajshahi":   {"Rajshahi", "Natore", "Naogaon", "Chapainawabganj", "Pabna"},
	"Khulna":     {"Khulna", "Bagerhat", "Satkhira", "Jessore", "Magura"},
	"Barishal":   {"Barishal", "Bhola", "Pirojpur", "Barguna", "Patuakhali"},
	"Sylhet":     {"Sylhet", "Moulvibazar", "Habiganj", "Sunamganj"},
	"Rangpur":    {"Rangpur", "Dinajpur", "Kurigram", "Gaibandha", "Nilphamari"},
	"Mymensingh": {"Mymensingh", "Jamalpur", "Netrokona", "Sherpur"},
}

// Default returns a copy of the built-in directory
func Default() Directory {
	d := make(Directory, len(defaultDirectory))
	for k, v := range defaultDirectory {
		d[k] = append([]string(nil), v...)
	}
	return d
}

// Districts returns the district names in alphabetical order
func (d Directory) Districts() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Valid reports whether subDistrict belongs to district
func (d Directory) Valid(district, subDistrict string) bool {
	for _, s := range d[district] {
		if s == subDistrict {
			return true
		}
	}
	return false
}

// Same reports whether two locations are the same jurisdiction. Surrounding
// whitespace and letter case are ignored.
func Same(districtA, subDistrictA, districtB, subDistrictB string) bool {
	return strings.EqualFold(strings.TrimSpace(districtA), strings.TrimSpace(districtB)) &&
		strings.EqualFold(strings.TrimSpace(subDistrictA), strings.TrimSpace(subDistrictB))
}

// Slug turns a location into the lower_snake form used in officer usernames
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
