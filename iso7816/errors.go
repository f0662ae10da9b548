package iso7816

import "fmt"

type ErrBadResponse struct {
	Sw      uint16
	message string
}

func NewErrBadResponse(sw uint16, message string) *ErrBadResponse {
	return &ErrBadResponse{
		Sw:      sw,
		message: message,
	}
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("bad response %x: %s", e.Sw, e.message)
}

// CheckOK returns err if set, otherwise an *ErrBadResponse unless the status
// word is one of allowedResponses (SwOK by default).
func CheckOK(resp *Response, err error, allowedResponses ...uint16) error {
	if err != nil {
		return err
	}

	if len(allowedResponses) == 0 {
		allowedResponses = []uint16{SwOK}
	}

	for _, code := range allowedResponses {
		if code == resp.Sw {
			return nil
		}
	}

	return NewErrBadResponse(resp.Sw, "unexpected response")
}
