package searchidx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lens-academy/relay/store"
)

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "Design Doc", titleFromPath("Notes/Design Doc.md"))
	assert.Equal(t, "Readme", titleFromPath("Readme.md"))
	assert.Equal(t, "noext", titleFromPath("Folder/noext"))
}

func TestDocID2UUID(t *testing.T) {
	relayUUID := "11111111-1111-1111-1111-111111111111"
	docUUID := "22222222-2222-2222-2222-222222222222"
	docID := store.MakeDocID(relayUUID, docUUID)
	assert.Equal(t, docUUID, docID2uuid(docID))
}

func TestDocID2UUIDMalformedFallsBack(t *testing.T) {
	assert.Equal(t, "not-a-docid", docID2uuid("not-a-docid"))
}

func TestMonotonicStampIncreases(t *testing.T) {
	a := monotonicStamp()
	b := monotonicStamp()
	assert.Greater(t, b, a)
}
