// Package normalize maps heterogeneous per-run columns into CanonicalRecord,
// classifies feature kind, and normalizes clock strings to decimal hours.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/pipelinedata/ili-lineage/internal/ilierr"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

var foldCaser = cases.Fold()

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeHeaderKey case-folds and collapses whitespace runs (including
// embedded newlines, which \s+ already matches) in a raw header name.
func normalizeHeaderKey(raw string) string {
	folded := foldCaser.String(raw)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(folded, " "))
}

var (
	girthWeldRe = regexp.MustCompile(`(?i)^(girth\s*weld|girthweld|gw)$`)
	anomalyRe   = regexp.MustCompile(`(?i)metal\s*loss|corrosion|cluster|dent|crack|seam\s*weld\s*anomaly`)
)

// classifyFeature derives FeatureKind from a raw description, girth_weld >
// anomaly > other precedence.
func classifyFeature(desc string) ilimodel.FeatureKind {
	d := strings.TrimSpace(desc)
	if d == "" {
		return ilimodel.FeatureOther
	}
	if girthWeldRe.MatchString(d) {
		return ilimodel.FeatureGirthWeld
	}
	if anomalyRe.MatchString(d) {
		return ilimodel.FeatureAnomaly
	}
	return ilimodel.FeatureOther
}

// parseClock normalizes a clock-position string to decimal hours. Inputs
// with a colon are parsed as H:M[:S]. Inputs with exactly two digits after a
// single '.' are parsed as the same H.MM notation (a spreadsheet convention
// for "o'clock" columns entered without a colon key). Everything else that
// parses as a plain number is treated as a bare decimal-hours value. Values
// above 12 wrap modulo 12; unparseable or blank input yields nil.
func parseClock(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 3)
		h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil
		}
		m := 0
		if len(parts) > 1 {
			m, err = strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil
			}
		}
		return wrapClock(float64(h) + float64(m)/60.0)
	}

	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		if len(frac) == 2 {
			if m, err := strconv.Atoi(frac); err == nil && m >= 0 && m < 60 {
				if h, err2 := strconv.Atoi(s[:dot]); err2 == nil {
					return wrapClock(float64(h) + float64(m)/60.0)
				}
			}
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return wrapClock(v)
}

// wrapClock enforces the clock_position ∈ [0,12) invariant: 12 wraps to 0,
// and any value above 12 wraps modulo 12.
func wrapClock(v float64) *float64 {
	if v < 0 {
		return nil
	}
	m := math.Mod(v, 12)
	return &m
}

func parseFloatPtr(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Result is the output of normalizing one run's row set.
type Result struct {
	Records    []ilimodel.CanonicalRecord
	GirthWelds []ilimodel.CanonicalRecord
	Anomalies  []ilimodel.CanonicalRecord
	Warnings   []ilimodel.Warning
}

// Normalize maps one run's raw row set into canonical records.
// slot selects which of the three header tables in headers.go applies
// (0=Y0, 1=Y1, 2=Y2); runYear is the calendar year stamped onto every record.
func Normalize(rows ilimodel.RowSet, runYear, slot int) (*Result, error) {
	headerMap, ok := HeaderMaps[slot]
	if !ok {
		return nil, &ilierr.InvariantFailure{Component: "normalize", Reason: fmt.Sprintf("unknown run slot %d", slot)}
	}

	// rawToCanonical maps a normalized raw header key to its canonical field name.
	rawToCanonical := make(map[string]string)
	for canonical, rawNames := range headerMap {
		for _, raw := range rawNames {
			rawToCanonical[normalizeHeaderKey(raw)] = canonical
		}
	}

	res := &Result{}

	oneRecognizedOdometer := false
	for i, row := range rows {
		rec := ilimodel.CanonicalRecord{
			RunYear:  runYear,
			RowIndex: i,
		}

		values := make(map[string]string)
		extra := make(map[string]string)
		for rawKey, val := range row {
			canonical, known := rawToCanonical[normalizeHeaderKey(rawKey)]
			if !known {
				if strings.TrimSpace(val) != "" {
					extra[strings.TrimSpace(rawKey)] = val
				}
				continue
			}
			values[canonical] = val
		}
		if len(extra) > 0 {
			rec.Extra = extra
		}

		rec.OdometerFt = parseFloatPtr(values["odometer_ft"])
		if rec.OdometerFt == nil && strings.TrimSpace(values["odometer_ft"]) != "" {
			zap.L().Warn("normalize: dropping unparseable odometer value",
				zap.Int("run_year", runYear), zap.Int("row_index", i), zap.String("raw", values["odometer_ft"]))
		}
		if rec.OdometerFt != nil {
			oneRecognizedOdometer = true
		}
		rec.CorrectedOdometerFt = rec.OdometerFt

		rec.WallThicknessIn = parseFloatPtr(values["wall_thickness_in"])
		rec.DepthPct = parseFloatPtr(values["depth_pct"])
		rec.DepthIn = parseFloatPtr(values["depth_in"])
		rec.LengthIn = parseFloatPtr(values["length_in"])
		rec.WidthIn = parseFloatPtr(values["width_in"])
		rec.JointNumber = parseFloatPtr(values["joint_number"])
		rec.JointLengthFt = parseFloatPtr(values["joint_length_ft"])
		rec.DistToUSWeldFt = parseFloatPtr(values["dist_to_us_weld_ft"])
		rec.DistToDSWeldFt = parseFloatPtr(values["dist_to_ds_weld_ft"])
		rec.ERF = parseFloatPtr(values["erf"])
		rec.RPR = parseFloatPtr(values["rpr"])
		rec.IDOD = strings.TrimSpace(values["id_od"])
		rec.Comments = strings.TrimSpace(values["comments"])
		rec.FeatureDescription = strings.TrimSpace(values["feature_description"])

		if clockRaw, ok := values["clock_raw"]; ok {
			if cp := parseClock(clockRaw); cp != nil {
				rec.ClockPosition = cp
			} else if strings.TrimSpace(clockRaw) != "" {
				zap.L().Warn("normalize: dropping unparseable clock value",
					zap.Int("run_year", runYear), zap.Int("row_index", i), zap.String("raw", clockRaw))
			}
		}

		// Depth-in derivation, only when not already present in the row.
		if rec.DepthIn == nil && rec.DepthPct != nil && rec.WallThicknessIn != nil {
			v := *rec.DepthPct * *rec.WallThicknessIn / 100.0
			rec.DepthIn = &v
		}

		rec.FeatureKind = classifyFeature(rec.FeatureDescription)
		rec.FeatureID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("run:%d:row:%d", runYear, i))).String()

		res.Records = append(res.Records, rec)
		switch rec.FeatureKind {
		case ilimodel.FeatureGirthWeld:
			res.GirthWelds = append(res.GirthWelds, rec)
		case ilimodel.FeatureAnomaly:
			res.Anomalies = append(res.Anomalies, rec)
		}
	}

	if len(rows) > 0 && !oneRecognizedOdometer {
		return nil, eris.Wrap(&ilierr.SchemaError{
			RunYear: runYear,
			Field:   "odometer_ft",
			Reason:  "column entirely null or header not recognized",
		}, "normalize")
	}

	if len(res.Anomalies) == 0 {
		res.Warnings = append(res.Warnings, ilimodel.Warning{
			Kind:    string(ilierr.KindEmptyRun),
			RunYear: runYear,
			Message: "run has zero anomalies",
		})
	}
	if len(res.GirthWelds) < 2 {
		res.Warnings = append(res.Warnings, ilimodel.Warning{
			Kind:    string(ilierr.KindInsufficientAnchors),
			RunYear: runYear,
			Message: fmt.Sprintf("run has only %d girth weld(s); drift correction will be skipped", len(res.GirthWelds)),
		})
	}

	return res, nil
}
