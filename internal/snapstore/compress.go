package snapstore

import (
	"github.com/klauspost/compress/zstd"
)

// estimateCompressedSize reports how small data would be under zstd,
// independent of whatever codec Parquet used internally for its column
// chunks. metadata.json surfaces this figure so callers can judge a
// source's compressibility without decoding the full snapshot.
func estimateCompressedSize(data []byte) (uint64, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(data, nil)
	return uint64(len(compressed)), nil
}
