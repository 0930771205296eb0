package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestBusinessRecordSchema(t *testing.T) {
	schema := MustCompile(BusinessRecordSchema)

	tests := []struct {
		name     string
		doc      string
		valid    bool
		badField string
	}{
		{name: "minimal record", doc: `{"id":"b1","name":"Acme"}`, valid: true},
		{name: "numeric id", doc: `{"id":42,"name":"Acme"}`, valid: true},
		{name: "null optionals", doc: `{"id":"b1","name":"Acme","rating":null,"address":null}`, valid: true},
		{name: "missing name", doc: `{"id":"b1"}`, valid: false},
		{name: "empty name", doc: `{"id":"b1","name":""}`, valid: false, badField: "name"},
		{name: "rating above range", doc: `{"id":"b1","name":"Acme","rating":5.5}`, valid: false, badField: "rating"},
		{name: "negative review count", doc: `{"id":"b1","name":"Acme","reviewCount":-1}`, valid: false, badField: "reviewCount"},
		{name: "rating as string", doc: `{"id":"b1","name":"Acme","rating":"4.5"}`, valid: false, badField: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := schema.Validate(decode(t, tt.doc))
			assert.Equal(t, tt.valid, res.Valid, res.Error())
			if tt.badField != "" {
				assert.True(t, res.HasErrors(tt.badField), res.GetErrorMessages())
			}
		})
	}
}

func TestComplaintSchema(t *testing.T) {
	schema := MustCompile(ComplaintSchema)

	valid := map[string]interface{}{
		"businessId":    "b1",
		"reporterName":  "Jane",
		"reporterEmail": "jane@example.com",
		"subject":       "Missed appointment",
		"description":   "They cancelled three times without notice.",
	}
	assert.True(t, schema.Validate(valid).Valid)

	badEmail := map[string]interface{}{}
	for k, v := range valid {
		badEmail[k] = v
	}
	badEmail["reporterEmail"] = "not-an-email"
	res := schema.Validate(badEmail)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("reporterEmail"))

	short := map[string]interface{}{}
	for k, v := range valid {
		short[k] = v
	}
	short["description"] = "too short"
	assert.False(t, schema.Validate(short).Valid)
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	_, err := Compile(`{"type": 12`)
	assert.Error(t, err)
}
