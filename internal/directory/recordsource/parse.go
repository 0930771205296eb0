// internal/directory/recordsource/parse.go
package recordsource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"visa-directory/internal/common/validation"
	"visa-directory/internal/models"
)

var recordSchema = validation.MustCompile(validation.BusinessRecordSchema)

// rawRecord mirrors the wire shape; the id may be a string or a number.
type rawRecord struct {
	ID             interface{} `json:"id"`
	Name           string      `json:"name"`
	Address        *string     `json:"address"`
	Category       *string     `json:"category"`
	Phone          *string     `json:"phone"`
	Website        *string     `json:"website"`
	Email          *string     `json:"email"`
	Rating         *float64    `json:"rating"`
	ReviewCount    *int        `json:"reviewCount"`
	ReportCount    *int        `json:"reportCount"`
	BusinessStatus *string     `json:"businessStatus"`
	LogoURL        *string     `json:"logoUrl"`
	Photos         []string    `json:"photos"`
}

// Dropped describes one record removed at the boundary.
type Dropped struct {
	Index  int
	Reason string
}

// Parse turns an accepted payload into canonical records. It rejects markup bodies,
// anything that is neither an array nor an object with a businesses array, and
// collections with no valid record.
func Parse(p *Payload) ([]models.Business, []Dropped, error) {
	if p == nil {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrSourceRejected)
	}
	if looksLikeMarkup(p) {
		return nil, nil, fmt.Errorf("%w: markup instead of structured data", ErrSourceRejected)
	}

	var decoded interface{}
	dec := json.NewDecoder(bytes.NewReader(p.Body))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: parse: %v", ErrSourceRejected, err)
	}

	items, ok := extractRecords(decoded)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no record array", ErrSourceRejected)
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: record array is empty", ErrSourceRejected)
	}

	var (
		out     = make([]models.Business, 0, len(items))
		dropped []Dropped
	)
	for i, item := range items {
		b, err := normalize(item)
		if err != nil {
			dropped = append(dropped, Dropped{Index: i, Reason: err.Error()})
			continue
		}
		out = append(out, b)
	}

	if len(out) == 0 {
		return nil, dropped, fmt.Errorf("%w: none of %d records is valid", ErrSourceRejected, len(items))
	}
	return out, dropped, nil
}

func looksLikeMarkup(p *Payload) bool {
	ct := strings.ToLower(p.ContentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "xml") {
		return true
	}
	trimmed := bytes.TrimLeft(p.Body, " \t\r\n\ufeff")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

func extractRecords(decoded interface{}) ([]interface{}, bool) {
	switch v := decoded.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		arr, ok := v["businesses"].([]interface{})
		return arr, ok
	default:
		return nil, false
	}
}

func normalize(item interface{}) (models.Business, error) {
	// json.Number is not understood by the schema loader; revalidate a plain copy.
	plain, err := json.Marshal(item)
	if err != nil {
		return models.Business{}, err
	}
	var generic interface{}
	if err := json.Unmarshal(plain, &generic); err != nil {
		return models.Business{}, err
	}
	if res := recordSchema.Validate(generic); !res.Valid {
		return models.Business{}, fmt.Errorf("schema: %s", res.Error())
	}

	var raw rawRecord
	dec := json.NewDecoder(bytes.NewReader(plain))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return models.Business{}, err
	}

	id, err := stringifyID(raw.ID)
	if err != nil {
		return models.Business{}, err
	}

	b := models.Business{
		ID:             id,
		Name:           strings.TrimSpace(raw.Name),
		Address:        deref(raw.Address),
		Category:       deref(raw.Category),
		Phone:          deref(raw.Phone),
		Website:        deref(raw.Website),
		Email:          deref(raw.Email),
		Rating:         raw.Rating,
		BusinessStatus: deref(raw.BusinessStatus),
		LogoURL:        deref(raw.LogoURL),
		Photos:         raw.Photos,
	}
	if raw.ReviewCount != nil {
		b.ReviewCount = *raw.ReviewCount
	}
	if raw.ReportCount != nil {
		b.ReportCount = *raw.ReportCount
	}
	if b.Name == "" {
		return models.Business{}, fmt.Errorf("name is blank")
	}
	return b, nil
}

func stringifyID(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		if id == "" {
			return "", fmt.Errorf("id is blank")
		}
		return id, nil
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		return "", fmt.Errorf("id %s is not an integer", id)
	default:
		return "", fmt.Errorf("id has unsupported type %T", v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
