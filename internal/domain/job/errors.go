package job

import "errors"

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrSlugTaken     = errors.New("slug already taken")
	ErrInvalidStatus = errors.New("invalid job status")
)
