package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ColumnRole is a semantic column the pipeline needs from the sheet.
type ColumnRole int

// Roles in resolution order. Earlier roles win a header matched by several.
const (
	RoleSite ColumnRole = iota
	RoleRegionOrCity
	RoleStatus
	RoleFuelDate
	RoleLatitude
	RoleLongitude

	roleCount
)

var roleNames = [roleCount]string{
	RoleSite:         "site",
	RoleRegionOrCity: "region_or_city",
	RoleStatus:       "status",
	RoleFuelDate:     "fuel_date",
	RoleLatitude:     "latitude",
	RoleLongitude:    "longitude",
}

func (r ColumnRole) String() string {
	if r < 0 || r >= roleCount {
		return "unknown"
	}
	return roleNames[r]
}

// Roles returns every role in resolution order.
func Roles() []ColumnRole {
	roles := make([]ColumnRole, roleCount)
	for i := range roles {
		roles[i] = ColumnRole(i)
	}
	return roles
}

// UnknownLabel is synthesized for Site and RegionOrCity when the sheet has no
// matching column.
const UnknownLabel = "Unknown"

// DefaultAliases holds the accepted normalized header spellings per role,
// most specific first.
var DefaultAliases = map[ColumnRole][]string{
	RoleSite:         {"sitename", "site", "name", "siteno", "sitenumber", "siteid", "cowid"},
	RoleRegionOrCity: {"cityname", "city", "location", "area", "region", "municipality"},
	RoleStatus:       {"status", "sitestatus", "operationalstatus", "opstatus"},
	RoleFuelDate:     {"nextfuelingplan", "nextfueldate", "nextfuel", "fueldate", "nextfueling"},
	RoleLatitude:     {"lat", "latitude", "sitelat", "sitelatitude"},
	RoleLongitude:    {"lng", "lon", "long", "longitude", "sitelng", "sitelon", "sitelongitude"},
}

var headerStripper = strings.NewReplacer(" ", "", "-", "", "_", "")

// NormalizeHeader folds a raw header into its comparison form: NFKC, trimmed,
// lowercased, with spaces, hyphens and underscores removed.
// NFKC turns the non-breaking spaces spreadsheets like to export into plain ones.
func NormalizeHeader(header string) string {
	h := norm.NFKC.String(header)
	h = strings.ToLower(strings.TrimSpace(h))
	return headerStripper.Replace(h)
}

// ResolutionKind tags how a role was satisfied.
type ResolutionKind int

const (
	Absent      ResolutionKind = iota // no column; the dependent feature is off
	Bound                             // a sheet column supplies the values
	Synthesized                       // every row gets Default
)

func (k ResolutionKind) String() string {
	switch k {
	case Bound:
		return "bound"
	case Synthesized:
		return "synthesized"
	default:
		return "absent"
	}
}

// Resolution is the outcome of resolving one role.
type Resolution struct {
	Kind    ResolutionKind
	Header  string // original header text, Bound only
	Index   int    // column index, Bound only
	Default string // per-row value, Synthesized only
}

// ShadowedHeader records a header that matched a role but was already bound
// to an earlier one.
type ShadowedHeader struct {
	Role      ColumnRole
	Header    string
	ClaimedBy ColumnRole
}

// ColumnBinding maps every role to its Resolution for one snapshot.
type ColumnBinding struct {
	resolutions [roleCount]Resolution
	Shadowed    []ShadowedHeader
}

// Get returns the resolution for role.
func (b ColumnBinding) Get(role ColumnRole) Resolution {
	if role < 0 || role >= roleCount {
		return Resolution{Kind: Absent}
	}
	return b.resolutions[role]
}

// IsBound reports whether role is backed by a sheet column.
func (b ColumnBinding) IsBound(role ColumnRole) bool {
	return b.Get(role).Kind == Bound
}

// ColumnResolver binds sheet headers to roles using per-role alias lists.
type ColumnResolver struct {
	aliases [roleCount]map[string]struct{}
}

// NewColumnResolver builds a resolver from alias lists. Aliases are
// normalized on the way in, so "Site Name" and "sitename" are equivalent.
// Roles missing from the map never bind.
func NewColumnResolver(aliases map[ColumnRole][]string) *ColumnResolver {
	r := &ColumnResolver{}
	for role := range roleCount {
		set := make(map[string]struct{}, len(aliases[role]))
		for _, a := range aliases[role] {
			set[NormalizeHeader(a)] = struct{}{}
		}
		r.aliases[role] = set
	}
	return r
}

var defaultResolver = NewColumnResolver(DefaultAliases)

// Resolve binds headers using DefaultAliases.
func Resolve(headers []string) ColumnBinding {
	return defaultResolver.Resolve(headers)
}

// Resolve scans headers in order and binds, for each role, the first header
// whose normalized form is one of the role's aliases. Headers that normalize
// to a form already seen are ignored, so the first duplicate wins. Roles with
// no match fall back per role (see package docs).
func (r *ColumnResolver) Resolve(headers []string) ColumnBinding {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	var binding ColumnBinding
	claimed := make(map[int]ColumnRole, roleCount)

	for _, role := range Roles() {
		res := Resolution{Kind: Absent}
		seen := make(map[string]struct{}, len(headers))

		for i, n := range normalized {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}

			if _, ok := r.aliases[role][n]; !ok {
				continue
			}
			if owner, taken := claimed[i]; taken {
				binding.Shadowed = append(binding.Shadowed, ShadowedHeader{Role: role, Header: headers[i], ClaimedBy: owner})
				continue
			}
			res = Resolution{Kind: Bound, Header: headers[i], Index: i}
			claimed[i] = role
			break
		}

		if res.Kind != Bound {
			res = fallbackFor(role)
		}
		binding.resolutions[role] = res
	}

	return binding
}

func fallbackFor(role ColumnRole) Resolution {
	switch role {
	case RoleSite, RoleRegionOrCity:
		return Resolution{Kind: Synthesized, Default: UnknownLabel}
	case RoleFuelDate:
		// An empty default parses to no date, so every row is later dropped.
		return Resolution{Kind: Synthesized, Default: ""}
	default:
		return Resolution{Kind: Absent}
	}
}
