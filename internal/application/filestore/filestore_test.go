package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Check(t *testing.T) {
	p := DefaultEvidencePolicy()

	assert.NoError(t, p.Check(&Upload{ContentType: "application/pdf", Data: []byte("%PDF")}))
	assert.NoError(t, p.Check(&Upload{ContentType: "image/PNG; charset=binary", Data: []byte{1}}))

	assert.ErrorContains(t, p.Check(nil), "empty")
	assert.ErrorContains(t, p.Check(&Upload{ContentType: "image/png"}), "empty")
	assert.ErrorContains(t, p.Check(&Upload{ContentType: "text/html", Data: []byte("<p>")}), "not supported")

	big := &Upload{ContentType: "image/png", Data: make([]byte, p.MaxSize+1)}
	assert.ErrorContains(t, p.Check(big), "exceeds")
}

func TestPolicy_CheckWithoutTypeList(t *testing.T) {
	p := Policy{MaxSize: 4}
	assert.NoError(t, p.Check(&Upload{ContentType: "text/plain", Data: []byte("ok")}))
}
