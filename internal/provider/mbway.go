package provider

import "net/http"

const mbwayCurrency = "EUR"

type MBWay struct{}

func NewMBWay() MBWay {
	return MBWay{}
}

func (MBWay) Name() string {
	return "mbway"
}

func (MBWay) Parse(r *http.Request) (Notification, error) {
	body, err := parseSimplePayload(r)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Reference:   body.SessionID,
		Outcome:     Outcome(body.Status),
		AmountCents: body.Amount,
		Currency:    mbwayCurrency,
	}, nil
}
