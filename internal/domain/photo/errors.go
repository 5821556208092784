package photo

import "errors"

var (
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrDuplicatePhoto = errors.New("identical photo already in catalog")
	ErrInvalidImage   = errors.New("file is not a decodable image")
	ErrInvalidType    = errors.New("file type not allowed")
	ErrNotPortrait    = errors.New("only portrait photos can be paired")
	ErrSelfPair       = errors.New("a photo cannot be paired with itself")
)
