package wire

import "errors"

var (
	ErrShortHeader        = errors.New("datagram shorter than header")
	ErrBadMagic           = errors.New("bad magic number")
	ErrShortBuffer        = errors.New("field overruns datagram")
	ErrTrailingBytes      = errors.New("trailing bytes after payload")
	ErrUnknownStorageType = errors.New("unknown storage type")
	ErrUnknownProbe       = errors.New("unknown probe id")
	ErrUnknownLogLevel    = errors.New("unknown log level")
	ErrDatagramTooSmall   = errors.New("maximum datagram size too small")
)
