// Package errs implements the OME's internal error taxonomy and its
// mapping onto HTTP status codes at the control-plane boundary.
package errs

import "github.com/gofiber/fiber/v2"

// Kind enumerates the closed set of internal error categories the
// matching engine can surface. Every error raised by src/engine carries
// one of these; execution.Sink.Enqueue instead returns the context's
// error when it stops waiting on a full queue.
type Kind int

const (
	// InvalidOrder covers bad price/amount/expiration/market mismatch.
	InvalidOrder Kind = iota
	// DuplicateOrder is raised when an order ID already rests in a book.
	DuplicateOrder
	// NotFound covers unknown markets or unknown order IDs.
	NotFound
	// AlreadyExists is raised by market creation when the market exists.
	AlreadyExists
	// Upstream covers Executioner unreachable / 5xx responses.
	Upstream
	// Internal covers invariant violations and arithmetic overflow.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidOrder:
		return "InvalidOrder"
	case DuplicateOrder:
		return "DuplicateOrder"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Upstream:
		return "Upstream"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// E is the OME's single error type. It carries enough to classify the
// failure (Kind) and explain it to a caller or log line (Msg).
type E struct {
	Kind Kind
	Msg  string
}

func (e *E) Error() string {
	return e.Msg
}

// New constructs an *E of the given kind with the given message.
func New(kind Kind, msg string) *E {
	return &E{Kind: kind, Msg: msg}
}

// HTTPStatus maps the error's Kind onto the status code table in the
// control-plane design: InvalidOrder->400, DuplicateOrder/AlreadyExists->409,
// NotFound->404, Upstream->502, Internal->500.
func (e *E) HTTPStatus() int {
	switch e.Kind {
	case InvalidOrder:
		return fiber.StatusBadRequest
	case DuplicateOrder, AlreadyExists:
		return fiber.StatusConflict
	case NotFound:
		return fiber.StatusNotFound
	case Upstream:
		return fiber.StatusBadGateway
	case Internal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// As reports whether err is an *E and, if so, returns it.
func As(err error) (*E, bool) {
	e, ok := err.(*E)
	return e, ok
}
