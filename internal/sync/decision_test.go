package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestDecideNineRows(t *testing.T) {
	cases := []struct {
		name string
		in   decisionInput
		want Action
	}{
		{
			name: "neither exists",
			in:   decisionInput{localExists: false, cloudExists: false},
			want: ActionSkip,
		},
		{
			name: "only local exists",
			in:   decisionInput{localExists: true, cloudExists: false, localMtime: 100},
			want: ActionUpload,
		},
		{
			name: "only cloud exists",
			in:   decisionInput{localExists: false, cloudExists: true, cloudMtime: 100},
			want: ActionDownload,
		},
		{
			name: "both changed, local newer",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 300, cloudMtime: 200,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionUpload,
		},
		{
			name: "both changed, cloud newer",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 200, cloudMtime: 300,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionDownload,
		},
		{
			name: "both changed, equal mtimes -> conflict",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 200, cloudMtime: 200,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionConflict,
		},
		{
			name: "only local changed",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 200, cloudMtime: 100,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionUpload,
		},
		{
			name: "only cloud changed",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 100, cloudMtime: 200,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionDownload,
		},
		{
			name: "neither changed",
			in: decisionInput{
				localExists: true, cloudExists: true,
				localMtime: 100, cloudMtime: 100,
				metaLocal: i64(100), metaCloud: i64(100),
			},
			want: ActionSkip,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decide(tc.in))
		})
	}
}

func TestDecideBothExistNoMetadataIsTreatedAsChanged(t *testing.T) {
	in := decisionInput{
		localExists: true, cloudExists: true,
		localMtime: 150, cloudMtime: 150,
	}

	assert.Equal(t, ActionConflict, decide(in))
}

func TestDecideIgnoresSubsecondPrecision(t *testing.T) {
	// The scanners record mtimes as whole Unix seconds, so two mtimes that
	// differ only below one second reach decide as equal values and the
	// pair is left alone.
	in := decisionInput{
		localExists: true, cloudExists: true,
		localMtime: 100, cloudMtime: 100,
		metaLocal: i64(100), metaCloud: i64(100),
	}

	assert.Equal(t, ActionSkip, decide(in))
}
