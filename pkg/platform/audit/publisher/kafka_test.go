package publisher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/pkg/platform/audit/publisher"
)

func TestRecord_KeysBySubject(t *testing.T) {
	record := publisher.Record("cohort.audit", "response-1", []byte(`{"Action":"response_completed"}`))

	assert.Equal(t, "cohort.audit", record.Topic)
	assert.Equal(t, []byte("response-1"), record.Key, "per-subject ordering needs a stable partition key")
	assert.JSONEq(t, `{"Action":"response_completed"}`, string(record.Value))
}

func TestDecodePayload(t *testing.T) {
	decoded, err := publisher.DecodePayload([]byte(`{"Action":"form_created","Subject":"form-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "form_created", decoded["Action"])
	assert.Equal(t, "form-1", decoded["Subject"])

	_, err = publisher.DecodePayload([]byte(`not json`))
	assert.Error(t, err)
}
