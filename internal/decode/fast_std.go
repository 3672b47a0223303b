//go:build !amd64 && !arm64

package decode

// decodeFast falls back to the token walker where sonic is unavailable.
func decodeFast(data []byte) (Value, error) {
	return walk(data, (*Object).Set)
}
