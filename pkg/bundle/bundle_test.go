package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuickLoad(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, ParseQuickLoad("a\tb\nc\td"))
	assert.Equal(t, [][]string{{"gato", "x"}, {"perro"}}, ParseQuickLoad(" gato \t x\r\n\r\n perro\n"))
	assert.Empty(t, ParseQuickLoad(""))
	// a line of spaces is not empty; its single cell trims to ""
	assert.Equal(t, [][]string{{""}}, ParseQuickLoad("   "))
}

func TestColumn(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"c"}, {"e", "f"}}
	assert.Equal(t, []string{"a", "c", "e"}, Column(rows, 0))
	assert.Equal(t, []string{"b", "f"}, Column(rows, 1))
	assert.Empty(t, Column(rows, 5))
	assert.Empty(t, Column(nil, 0))
}

func TestFlatRoundTrip(t *testing.T) {
	words := []string{"casa", "árbol", "", "<sol>", "luna", "mar"}
	data, err := EncodeFlat(words)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"casa\",")
	assert.Contains(t, string(data), "<sol>")

	got, err := DecodeFlat(data, FlatSlots)
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestDecodeFlat_TruncateAndPad(t *testing.T) {
	got, err := DecodeFlat([]byte(`["a","b","c","d","e","f","g","h"]`), FlatSlots)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, got)

	got, err = DecodeFlat([]byte(`["a"]`), FlatSlots)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "", "", "", ""}, got)
}

func TestDecodeFlat_Invalid(t *testing.T) {
	for _, in := range []string{`{"groups":[]}`, `[1,2]`, `not json`, `null`, `["a",`} {
		_, err := DecodeFlat([]byte(in), FlatSlots)
		assert.ErrorIs(t, err, ErrInvalidBundle, in)
	}
}

func TestDeletreoRoundTrip(t *testing.T) {
	b := DeletreoBundle{Groups: []WordGroup{
		{Words: []string{"uno", "dos", "tres"}},
		{Words: []string{}},
		{Words: []string{"", "cinco"}},
	}}
	data, err := EncodeDeletreo(b)
	require.NoError(t, err)

	got, err := DecodeDeletreo(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	again, err := EncodeDeletreo(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestEncodeDeletreo_NilWords(t *testing.T) {
	data, err := EncodeDeletreo(DeletreoBundle{Groups: []WordGroup{{}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups":[{"words":[]}]}`, string(data))

	data, err = EncodeDeletreo(DeletreoBundle{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups":[]}`, string(data))
}

func TestDecodeDeletreo_Invalid(t *testing.T) {
	cases := []string{
		`[]`,
		`null`,
		`{}`,
		`{"groups":{}}`,
		`{"groups":[null]}`,
		`{"groups":[{"palabras":[]}]}`,
		`{"groups":[{"words":"abc"}]}`,
		`{"groups":[{"words":[1]}]}`,
		`{"groups":`,
	}
	for _, in := range cases {
		_, err := DecodeDeletreo([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidBundle, in)
	}
}

func TestPersonajesRoundTrip(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	jpg := []byte{0xff, 0xd8, 0xff, 9, 8, 7}
	entries := []Personaje{
		{Nombre: "Ana", Image: &PersonajeImage{Filename: "ana.png", Data: png}},
		{Nombre: "Beto"},
		{Nombre: "", Image: &PersonajeImage{Filename: "foto.final.JPG", Data: jpg}},
		{}, {}, {},
	}

	data, err := EncodePersonajes(entries)
	require.NoError(t, err)

	got, err := DecodePersonajes(data, PersonajeSlots)
	require.NoError(t, err)
	require.Len(t, got, PersonajeSlots)

	assert.Equal(t, "Ana", got[0].Nombre)
	require.NotNil(t, got[0].Image)
	assert.Equal(t, png, got[0].Image.Data)
	assert.Equal(t, "personaje_1.png", got[0].Image.Filename)

	assert.Equal(t, "Beto", got[1].Nombre)
	assert.Nil(t, got[1].Image)

	require.NotNil(t, got[2].Image)
	assert.Equal(t, jpg, got[2].Image.Data)
	assert.Equal(t, "personaje_3.JPG", got[2].Image.Filename)

	for _, p := range got[3:] {
		assert.Equal(t, Personaje{}, p)
	}
}

func TestEncodePersonajes_Metadata(t *testing.T) {
	data, err := EncodePersonajes([]Personaje{
		{Nombre: "Ana", Image: &PersonajeImage{Filename: "ana.webp", Data: []byte("x")}},
		{Nombre: "Beto"},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, DataFile, zr.File[0].Name)
	assert.Equal(t, "personaje_1.webp", zr.File[1].Name)

	meta, err := readEntry(zr.File[0])
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"slot":1,"nombre":"Ana","extension":"webp","archivoImagen":"personaje_1.webp"},
		{"slot":2,"nombre":"Beto","extension":null,"archivoImagen":null}
	]`, string(meta))
}

func TestDecodePersonajes_MissingSlotsAndImages(t *testing.T) {
	meta := []map[string]any{
		{"slot": 4, "nombre": "Dora", "extension": "png", "archivoImagen": "personaje_4.png"},
		{"slot": 2, "nombre": "Beto", "extension": "png", "archivoImagen": "gone.png"},
	}
	data := buildZip(t, map[string][]byte{
		DataFile:          mustJSON(t, meta),
		"personaje_4.png": []byte("img4"),
	})

	got, err := DecodePersonajes(data, PersonajeSlots)
	require.NoError(t, err)
	assert.Equal(t, "Beto", got[1].Nombre)
	assert.Nil(t, got[1].Image, "referenced image absent from the archive is skipped")
	assert.Equal(t, "Dora", got[3].Nombre)
	require.NotNil(t, got[3].Image)
	assert.Equal(t, []byte("img4"), got[3].Image.Data)
	assert.Equal(t, Personaje{}, got[0])
}

func TestDecodePersonajes_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"not a zip":         []byte("plain text"),
		"missing data.json": buildZip(t, map[string][]byte{"personaje_1.png": []byte("x")}),
		"object data.json":  buildZip(t, map[string][]byte{DataFile: []byte(`{"slot":1}`)}),
		"bad json":          buildZip(t, map[string][]byte{DataFile: []byte(`[{"slot":`)}),
		"non-string nombre": buildZip(t, map[string][]byte{DataFile: []byte(`[{"slot":1,"nombre":5}]`)}),
	}
	for name, data := range cases {
		_, err := DecodePersonajes(data, PersonajeSlots)
		assert.ErrorIs(t, err, ErrInvalidBundle, name)
	}
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, "png", ImageExtension("a.png"))
	assert.Equal(t, "gz", ImageExtension("a.tar.gz"))
	assert.Equal(t, "foto", ImageExtension("foto"))
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		require.NoError(t, writeEntry(zw, name, data))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
