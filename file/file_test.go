package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/ceol/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(JSON, FormatOf("data/tunes.json"))
	assert.Equal(YAML, FormatOf("TUNES.YML"))
	assert.Equal(YAML, FormatOf("/x/tunes.yaml"))
	assert.Equal(Unknown, FormatOf("tunes"))
	assert.Equal(JSON, FormatOfContentType("application/json; charset=utf-8"))
	assert.Equal(YAML, FormatOfContentType("application/x-yaml"))
	assert.Equal(Unknown, FormatOfContentType("text/plain"))
}

func TestDecodeUnknownFallsBackToYAML(t *testing.T) {
	doc, err := DecodeTunes([]byte("tunes:\n  - title: Out on the Ocean\n    abc: \"K:G\\nG\"\n"), Unknown)
	require.NoError(t, err)
	require.Len(t, doc.Tunes, 1)
	assert.Equal(t, "Out on the Ocean", doc.Tunes[0].Title)
	assert.Equal(t, "K:G\nG", doc.Tunes[0].Notation)
}

func TestDecodeMissingTunes(t *testing.T) {
	doc, err := DecodeTunes([]byte(`{"other": 1}`), JSON)
	require.NoError(t, err)
	assert.Equal(t, []model.Tune{}, doc.Tunes)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeTunes([]byte(`{"tunes": 3}`), JSON)
	assert.Error(t, err)
	_, err = DecodeTunes([]byte("tunes: [unclosed"), YAML)
	assert.Error(t, err)
	_, err = DecodeTunes([]byte("{{{"), Unknown)
	assert.Error(t, err)
}

func TestWriteAndReadTuneFile(t *testing.T) {
	doc := model.TuneDocument{Tunes: []model.Tune{{Id: "1", Title: "Banish Misfortune", Type: "Jig", Notation: "K:Dmix\nfed"}}}
	for _, name := range []string{"tunes.json", "tunes.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteTuneFile(path, doc))
		got, err := ReadTuneFile(path)
		require.NoError(t, err)
		assert.Equal(t, doc, got, name)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadTuneFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
