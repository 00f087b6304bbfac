package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/couchcryptid/fuelplan-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Site Name,City,Status,Next Fueling Plan,Lat,Lng\n" +
	"RYD-001,  CENTRAL ,on-air,15/03/2025,24.71,46.67\n" +
	"RYD-002,Central,IN PROGRESS,#N/A,,\n"

func TestDecodeTable(t *testing.T) {
	table, err := DecodeTable(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Site Name", "City", "Status", "Next Fueling Plan", "Lat", "Lng"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "  CENTRAL ", table.Rows[0][1], "cells are not trimmed at decode time")
	assert.Equal(t, "#N/A", table.Rows[1][3])
}

func TestDecodeTable_RaggedRowsAndBOM(t *testing.T) {
	in := "\ufeffSite,City\nA\nB,Central,extra\n"

	table, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "Site", table.Headers[0])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"A"}, table.Rows[0])
	assert.Equal(t, []string{"B", "Central", "extra"}, table.Rows[1])
}

func TestDecodeTable_QuotedFields(t *testing.T) {
	in := "Site,Note\n\"RYD, 7\",\"said \"\"now\"\"\"\n"

	table, err := DecodeTable(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"RYD, 7", `said "now"`}, table.Rows[0])
}

func TestDecodeTable_NoHeader(t *testing.T) {
	for _, in := range []string{"", "\n\n", ",,\n"} {
		_, err := DecodeTable(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrNoHeader, "%q", in)
	}
}

func TestDecodeTable_HeaderOnly(t *testing.T) {
	table, err := DecodeTable(strings.NewReader("Site,City\n"))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestEncodeTable_RoundTrip(t *testing.T) {
	want := domain.RawTable{
		Headers: []string{"Site", "City"},
		Rows:    [][]string{{"A, west", "Central"}, {"B", ""}},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeTable(&buf, want))

	got, err := DecodeTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
