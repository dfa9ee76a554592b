package provider

import "net/http"

const pixCurrency = "BRL"

type Pix struct{}

func NewPix() Pix {
	return Pix{}
}

func (Pix) Name() string {
	return "pix"
}

func (Pix) Parse(r *http.Request) (Notification, error) {
	body, err := parseSimplePayload(r)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Reference:   body.SessionID,
		Outcome:     Outcome(body.Status),
		AmountCents: body.Amount,
		Currency:    pixCurrency,
	}, nil
}
