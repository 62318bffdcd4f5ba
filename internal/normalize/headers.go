package normalize

// HeaderMap maps a canonical field name to every raw header name accepted
// for one run slot. Keys are matched case-insensitively with whitespace runs
// collapsed — see normalizeHeaderKey.
//
// Slot 0/1/2 correspond to Y0/Y1/Y2: the three runs in chronological order,
// not a specific calendar year, so the pipeline can feed any three years
// into the same tables.
type HeaderMap map[string][]string

// HeaderMaps is data, not code: adding a fourth run slot or a synonym for
// an existing header is a change to this table, never to normalize.go.
var HeaderMaps = map[int]HeaderMap{
	0: {
		"odometer_ft":         {"log dist. [ft]"},
		"wall_thickness_in":   {"t [in]"},
		"feature_description": {"event"},
		"clock_raw":           {"o'clock"},
		"depth_pct":           {"depth [%]"},
		"length_in":           {"length [in]"},
		"width_in":            {"width [in]"},
		"joint_number":        {"jt #"},
		"joint_length_ft":     {"jt lgth [ft]"},
		"id_od":               {"id/od"},
		"erf":                 {"erf"},
		"dist_to_us_weld_ft":  {"us weld dist [ft]"},
		"dist_to_ds_weld_ft":  {"ds weld dist [ft]"},
		"comments":            {"comment"},
	},
	1: {
		"odometer_ft":         {"log dist. [ft]"},
		"wall_thickness_in":   {"wt [in]"},
		"feature_description": {"event description"},
		"clock_raw":           {"o'clock"},
		"depth_pct":           {"depth [%]"},
		"depth_in":            {"depth [in]"},
		"length_in":           {"length [in]"},
		"width_in":            {"width [in]"},
		"joint_number":        {"jt #"},
		"joint_length_ft":     {"jt lgth [ft]"},
		"id_od":               {"anomaly id/od"},
		"erf":                 {"erf"},
		"rpr":                 {"rpr"},
		"dist_to_us_weld_ft":  {"us weld dist [ft]"},
		"dist_to_ds_weld_ft":  {"ds weld dist [ft]"},
		"comments":            {"comments"},
	},
	2: {
		"odometer_ft":         {"ili wheel count [ft.]"},
		"wall_thickness_in":   {"wt [in]"},
		"feature_description": {"feature description"},
		"clock_raw":           {"o'clock [hh:mm]"},
		"depth_pct":           {"metal loss depth [%]"},
		"depth_in":            {"metal loss depth [in]"},
		"length_in":           {"length [in.]"},
		"width_in":            {"width [in.]"},
		"joint_number":        {"joint number"},
		"joint_length_ft":     {"joint length [ft.]"},
		"id_od":               {"id/od"},
		"erf":                 {"erf"},
		"rpr":                 {"rpr"},
		"dist_to_us_weld_ft":  {"distance marker upstream [ft.]"},
		"dist_to_ds_weld_ft":  {"distance marker downstream [ft.]"},
		"comments":            {"comments"},
	},
}

// canonicalFields lists every field that feeds the CanonicalRecord's typed
// columns (as opposed to the opaque Extra bag), in a stable order. Normalize
// does not read it; the only header it reports a SchemaError for is
// odometer_ft.
var canonicalFields = []string{
	"odometer_ft", "wall_thickness_in", "feature_description", "clock_raw",
	"depth_pct", "depth_in", "length_in", "width_in", "joint_number",
	"joint_length_ft", "id_od", "erf", "rpr", "dist_to_us_weld_ft",
	"dist_to_ds_weld_ft", "comments",
}
