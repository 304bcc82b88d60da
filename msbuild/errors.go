package msbuild

import "errors"

var (
	// ErrMissingRoot indicates the document contains no root element
	ErrMissingRoot = errors.New("document has no root element")

	// ErrUnexpectedRoot indicates the root element is not <Project>
	ErrUnexpectedRoot = errors.New("root element must be <Project>")

	// ErrUnknownElement indicates an element with no mapping at a closed level
	ErrUnknownElement = errors.New("unknown element")

	// ErrUnexpectedAttribute indicates an attribute not recognized on its element
	ErrUnexpectedAttribute = errors.New("unexpected attribute")

	// ErrDuplicateAttribute indicates an attribute repeated on one element
	ErrDuplicateAttribute = errors.New("duplicate attribute")

	// ErrMissingOperation indicates an item with none of Include, Remove, Update
	ErrMissingOperation = errors.New("item declares no operation")

	// ErrAmbiguousOperation indicates an item with more than one of Include, Remove, Update
	ErrAmbiguousOperation = errors.New("item declares more than one operation")

	// ErrMissingDestination indicates an output with neither PropertyName nor ItemName
	ErrMissingDestination = errors.New("output declares no destination")

	// ErrAmbiguousDestination indicates an output with both PropertyName and ItemName
	ErrAmbiguousDestination = errors.New("output declares both a property and an item destination")

	// ErrUnexpectedContent indicates markup the document model has no position for,
	// such as text between elements or a comment inside a task invocation
	ErrUnexpectedContent = errors.New("unexpected content")
)
