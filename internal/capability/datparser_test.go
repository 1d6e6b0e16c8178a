package capability_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadekeep/arcadekeep/internal/capability"
)

const sampleDat = `<?xml version="1.0"?>
<datafile>
  <header>
    <id>12345</id>
    <name>Nintendo - Nintendo Entertainment System</name>
    <description>Nintendo - NES</description>
    <version>20240101</version>
    <date>2024-01-01</date>
    <author>No-Intro</author>
    <homepage>no-intro.org</homepage>
    <url>https://no-intro.org</url>
  </header>
  <game id="1" name="Donkey Kong (USA)">
    <description>Donkey Kong (USA)</description>
    <rom name="Donkey Kong (USA).nes" size="24592" crc="12345678" md5="abc" sha1="def0123456789abcdef0123456789abcdef0123" status="verified" />
  </game>
</datafile>`

func TestXMLDatCatalogParser_Parse(t *testing.T) {
	parser := capability.NewXMLDatCatalogParser()

	dat, err := parser.Parse(strings.NewReader(sampleDat))
	require.NoError(t, err)

	assert.Equal(t, "Nintendo - Nintendo Entertainment System", dat.Header.Name)
	require.Len(t, dat.Games, 1)
	assert.Equal(t, "Donkey Kong (USA)", dat.Games[0].Name)
	require.Len(t, dat.Games[0].Roms, 1)
	assert.Equal(t, "def0123456789abcdef0123456789abcdef0123", dat.Games[0].Roms[0].SHA1)
	assert.Equal(t, int64(24592), dat.Games[0].Roms[0].Size)
}

func TestXMLDatCatalogParser_InvalidXML(t *testing.T) {
	parser := capability.NewXMLDatCatalogParser()

	_, err := parser.Parse(strings.NewReader("not xml"))
	assert.Error(t, err)
}
