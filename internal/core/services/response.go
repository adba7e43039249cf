package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// ParseOutcome tags how an analyzer reply was normalised.
type ParseOutcome int

const (
	// OutcomeStructured means a JSON object was found and decoded.
	OutcomeStructured ParseOutcome = iota

	// OutcomeRawFallback means no JSON object was found; the record carries
	// an excerpt of the reply as its summary.
	OutcomeRawFallback
)

// String returns the outcome name.
func (o ParseOutcome) String() string {
	switch o {
	case OutcomeStructured:
		return "structured"
	case OutcomeRawFallback:
		return "raw_fallback"
	default:
		return "unknown"
	}
}

// fallbackSummaryLength is the excerpt length used when a reply has no structure.
const fallbackSummaryLength = 200

// emptyReplySummary is the summary used when the analyzer returned nothing.
const emptyReplySummary = "The analyzer returned an empty response."

// NormaliseResponse converts a free-text analyzer reply into a record.
// The first well-formed JSON object in the reply is decoded field by field;
// fields with unexpected types are left empty. A reply without any JSON object
// yields a record whose summary is an excerpt of the reply. It never fails,
// and RawResponse always holds the reply verbatim.
func NormaliseResponse(raw string, metadata domain.ScanMetadata) (*domain.AnalysisRecord, ParseOutcome) {
	record := &domain.AnalysisRecord{
		Metadata:    metadata,
		RawResponse: raw,
	}

	fields, ok := firstJSONObject(raw)
	if !ok {
		record.Summary = fallbackSummary(raw)
		return record, OutcomeRawFallback
	}

	record.Summary = decodeString(fields["summary"])
	record.Objectives = decodeStrings(fields["objectives"])
	record.Architecture = decodeArchitecture(fields["architecture"])
	record.KeyComponents = decodeComponents(fields["key_components"])
	record.TechStack = decodeStrings(fields["tech_stack"])
	record.Concepts = decodeConcepts(fields["concepts"])
	record.ComplexityScore = decodeScore(fields["complexity_score"])
	record.Recommendations = decodeStrings(fields["recommendations"])
	return record, OutcomeStructured
}

// firstJSONObject decodes the first well-formed JSON object embedded in s.
func firstJSONObject(s string) (map[string]json.RawMessage, bool) {
	for i := 0; i < len(s); i++ {
		next := strings.IndexByte(s[i:], '{')
		if next < 0 {
			return nil, false
		}
		i += next

		var obj map[string]json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

func fallbackSummary(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return emptyReplySummary
	}
	if utf8.RuneCountInString(text) <= fallbackSummaryLength {
		return text
	}
	return string([]rune(text)[:fallbackSummaryLength]) + "..."
}

func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	return obj
}

func decodeString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// decodeStrings accepts a list of strings. Numbers and booleans in the list
// are kept in their text form; other items are dropped.
func decodeStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var v any
		if json.Unmarshal(item, &v) != nil {
			continue
		}
		switch val := v.(type) {
		case string:
			out = append(out, val)
		case float64, bool:
			out = append(out, fmt.Sprint(val))
		}
	}
	return out
}

func decodeStringMap(raw json.RawMessage) map[string]string {
	obj := decodeObject(raw)
	if obj == nil {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s := decodeString(v); s != "" {
			out[k] = s
		}
	}
	return out
}

func decodeArchitecture(raw json.RawMessage) domain.Architecture {
	obj := decodeObject(raw)
	if obj == nil {
		return domain.Architecture{}
	}
	return domain.Architecture{
		Pattern:        decodeString(obj["pattern"]),
		Layers:         decodeStrings(obj["layers"]),
		KeyDirectories: decodeStringMap(obj["key_directories"]),
	}
}

func decodeObjects(raw json.RawMessage) []map[string]json.RawMessage {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		if obj := decodeObject(item); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func decodeComponents(raw json.RawMessage) []domain.Component {
	objs := decodeObjects(raw)
	if objs == nil {
		return nil
	}
	out := make([]domain.Component, 0, len(objs))
	for _, obj := range objs {
		out = append(out, domain.Component{
			Name:     decodeString(obj["name"]),
			Kind:     decodeString(obj["type"]),
			Purpose:  decodeString(obj["purpose"]),
			Location: decodeString(obj["location"]),
		})
	}
	return out
}

func decodeConcepts(raw json.RawMessage) []domain.Concept {
	objs := decodeObjects(raw)
	if objs == nil {
		return nil
	}
	out := make([]domain.Concept, 0, len(objs))
	for _, obj := range objs {
		out = append(out, domain.Concept{
			Name:        decodeString(obj["name"]),
			Category:    decodeString(obj["category"]),
			Description: decodeString(obj["description"]),
			Examples:    decodeStrings(obj["examples"]),
			Importance:  decodeString(obj["importance"]),
		})
	}
	return out
}

// decodeScore accepts integers, floats (rounded) and numeric strings
// within the int range.
func decodeScore(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return nil
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	// Scores that do not fit in an int are dropped, not wrapped.
	rounded := math.Round(f)
	if rounded < math.MinInt || rounded >= -math.MinInt {
		return nil
	}
	score := int(rounded)
	return &score
}
