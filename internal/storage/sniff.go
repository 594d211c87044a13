package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotImage = errors.New("storage: not an image")

const sniffLen = 3072

// Sniff detects the content type from the leading bytes of r and returns a
// reader that still yields the full content.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	return mt.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// SniffImage is Sniff restricted to image types.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	ct, rr, err := Sniff(r)
	if err != nil {
		return "", nil, err
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", nil, ErrNotImage
	}
	return ct, rr, nil
}
