package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"already normalized", "sitename", "sitename"},
		{"title case with space", "Site Name", "sitename"},
		{"padded", "  City  ", "city"},
		{"hyphens and underscores", "NEXT-FUEL_DATE", "nextfueldate"},
		{"non-breaking space", "Next\u00a0Fueling\u00a0Plan", "nextfuelingplan"},
		{"fullwidth letters", "ＬＡＴ", "lat"},
		{"empty", "", ""},
		{"only separators", " -_ ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeHeader(tt.header))
		})
	}
}

func TestResolve_BindsEveryRole(t *testing.T) {
	headers := []string{"Site Name", "City", "Status", "Next Fueling Plan", "Latitude", "Longitude"}

	b := Resolve(headers)

	for i, role := range Roles() {
		res := b.Get(role)
		assert.Equal(t, Bound, res.Kind, role.String())
		assert.Equal(t, i, res.Index, role.String())
		assert.Equal(t, headers[i], res.Header, role.String())
	}
	assert.Empty(t, b.Shadowed)
}

func TestResolve_AliasSpellings(t *testing.T) {
	for _, role := range Roles() {
		for _, alias := range DefaultAliases[role] {
			for _, spelled := range spellingsOf(alias) {
				t.Run(role.String()+"/"+spelled, func(t *testing.T) {
					b := Resolve([]string{"unrelated", spelled})
					res := b.Get(role)
					require.Equal(t, Bound, res.Kind)
					assert.Equal(t, 1, res.Index)
					assert.Equal(t, spelled, res.Header)
				})
			}
		}
	}
}

// spellingsOf returns messy variants of a normalized alias.
func spellingsOf(alias string) []string {
	upper := make([]byte, len(alias))
	for i := range alias {
		c := alias[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	mid := len(alias) / 2
	return []string{
		alias,
		string(upper),
		"  " + alias + " ",
		alias[:mid] + "_" + alias[mid:],
		alias[:mid] + "-" + alias[mid:],
		alias[:mid] + " " + alias[mid:],
	}
}

func TestResolve_FirstMatchingHeaderWins(t *testing.T) {
	// "name" appears before "site_name"; header order decides, not alias order.
	b := Resolve([]string{"Name", "Site Name", "Fuel Date"})

	site := b.Get(RoleSite)
	require.Equal(t, Bound, site.Kind)
	assert.Equal(t, "Name", site.Header)
	assert.Equal(t, 0, site.Index)
}

func TestResolve_DuplicateNormalizedHeaders(t *testing.T) {
	b := Resolve([]string{"Site Name", "site_name", "SITE-NAME"})

	site := b.Get(RoleSite)
	require.Equal(t, Bound, site.Kind)
	assert.Equal(t, 0, site.Index)
}

func TestResolve_Fallbacks(t *testing.T) {
	b := Resolve([]string{"foo", "bar"})

	assert.Equal(t, Resolution{Kind: Synthesized, Default: UnknownLabel}, b.Get(RoleSite))
	assert.Equal(t, Resolution{Kind: Synthesized, Default: UnknownLabel}, b.Get(RoleRegionOrCity))
	assert.Equal(t, Resolution{Kind: Synthesized, Default: ""}, b.Get(RoleFuelDate))
	assert.Equal(t, Absent, b.Get(RoleStatus).Kind)
	assert.Equal(t, Absent, b.Get(RoleLatitude).Kind)
	assert.Equal(t, Absent, b.Get(RoleLongitude).Kind)
	assert.False(t, b.IsBound(RoleSite))
}

func TestResolve_EmptyHeaders(t *testing.T) {
	b := Resolve(nil)

	assert.Equal(t, Synthesized, b.Get(RoleSite).Kind)
	assert.Equal(t, Synthesized, b.Get(RoleFuelDate).Kind)
	assert.Equal(t, Absent, b.Get(RoleStatus).Kind)
}

func TestResolve_EarlierRoleClaimsSharedHeader(t *testing.T) {
	r := NewColumnResolver(map[ColumnRole][]string{
		RoleSite:         {"location"},
		RoleRegionOrCity: {"Location", "area"},
	})

	b := r.Resolve([]string{"Location", "Area"})

	assert.Equal(t, 0, b.Get(RoleSite).Index)
	region := b.Get(RoleRegionOrCity)
	require.Equal(t, Bound, region.Kind)
	assert.Equal(t, "Area", region.Header)
	assert.Equal(t, []ShadowedHeader{{Role: RoleRegionOrCity, Header: "Location", ClaimedBy: RoleSite}}, b.Shadowed)
}

func TestResolve_EarlierRoleClaimsOnlyHeader(t *testing.T) {
	r := NewColumnResolver(map[ColumnRole][]string{
		RoleSite:         {"location"},
		RoleRegionOrCity: {"location"},
	})

	b := r.Resolve([]string{"location"})

	assert.True(t, b.IsBound(RoleSite))
	assert.Equal(t, Resolution{Kind: Synthesized, Default: UnknownLabel}, b.Get(RoleRegionOrCity))
	assert.Len(t, b.Shadowed, 1)
}

func TestColumnRole_String(t *testing.T) {
	assert.Equal(t, "site", RoleSite.String())
	assert.Equal(t, "longitude", RoleLongitude.String())
	assert.Equal(t, "unknown", ColumnRole(42).String())
	assert.Equal(t, Absent, ColumnBinding{}.Get(ColumnRole(-1)).Kind)
}

func TestResolutionKind_String(t *testing.T) {
	assert.Equal(t, "bound", Bound.String())
	assert.Equal(t, "synthesized", Synthesized.String())
	assert.Equal(t, "absent", Absent.String())
}
