package toolset

import (
	"context"
	"testing"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	idx := index.NewInMemoryIndex()
	docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})

	ids, err := Publish(context.Background(), idx, docs, NewRigor(&fakeOps{}, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rigor:execute_code",
		"rigor:get_session_log",
		"rigor:save_reproducible_script",
		"rigor:validate_code",
	}, ids)

	results, err := idx.Search("reproducible script", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if r.ID == "rigor:save_reproducible_script" {
			found = true
		}
	}
	assert.True(t, found, "search results %v", results)

	doc, err := docs.DescribeTool("rigor:execute_code", tooldoc.DetailFull)
	require.NoError(t, err)
	assert.Contains(t, doc.Summary, "rigor checks")
	assert.Contains(t, doc.Notes, "confirmed=true")
}
