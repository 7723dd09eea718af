package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"todoboard/internal/model"
)

// ErrMalformedImport is returned when a backup is not a JSON array.
var ErrMalformedImport = errors.New("malformed import")

// PlaceholderText replaces a missing or empty text.
const PlaceholderText = "Untitled Task"

const importSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array"
}`

var schema = jsonschema.MustCompileString("todoboard-import.json", importSchema)

// ParseImport decodes a backup into drafts, in file order. Records are
// loose: flags use truthiness, a missing text gets PlaceholderText and
// meta data is kept only when it carries an integral dueTime.
func ParseImport(data []byte) ([]model.Draft, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedImport)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedImport, schemaMessage(err))
	}

	records := doc.([]any)
	drafts := make([]model.Draft, 0, len(records))
	for _, rec := range records {
		drafts = append(drafts, draftFrom(rec))
	}
	return drafts, nil
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		for len(ve.Causes) > 0 {
			ve = ve.Causes[0]
		}
		return ve.Message
	}
	return err.Error()
}

func draftFrom(rec any) model.Draft {
	obj, _ := rec.(map[string]any)
	d := model.Draft{
		Text:      textOf(obj["text"]),
		Completed: truthy(obj["completed"]),
		Archived:  truthy(obj["archived"]),
		MetaData:  metaOf(obj["meta_data"]),
	}
	if s, ok := obj["createdAt"].(string); ok {
		d.CreatedAt = s
	}
	return d
}

func textOf(v any) string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) != "" {
			return t
		}
	case json.Number:
		if truthy(t) {
			return t.String()
		}
	case bool:
		if t {
			return "true"
		}
	}
	return PlaceholderText
}

// truthy follows JavaScript truthiness: false, 0, "" and null are false,
// every object and array is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

func metaOf(v any) *model.MetaData {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	n, ok := obj["dueTime"].(json.Number)
	if !ok {
		return nil
	}
	sec, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil
		}
		sec = int64(f)
	}
	return &model.MetaData{DueTime: &sec}
}
