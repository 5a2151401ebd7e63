package app

import (
	"strings"
	"testing"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/require"
)

func TestHDTSentenceParsesBack(t *testing.T) {
	cases := []float64{0, 3.5, 90, 123.4, 359.9}

	for _, deg := range cases {
		line := hdtSentence("HC", deg)
		require.True(t, strings.HasPrefix(line, "$HCHDT,"))
		require.True(t, strings.HasSuffix(line, "\r\n"))

		sentence, err := nmea.Parse(strings.TrimSpace(line))
		require.NoError(t, err, "sentence %q must carry a valid checksum", line)
		require.Equal(t, nmea.TypeHDT, sentence.DataType())

		hdt := sentence.(nmea.HDT)
		require.InDelta(t, deg, hdt.Heading, 0.05)
		require.Equal(t, "HC", sentence.TalkerID())
	}
}
