package card

import (
	"fmt"
	"time"
)

// Header is the greeting shown at the top of the card.
type Header struct {
	Greeting   string `json:"greeting"`
	IsBirthday bool   `json:"is_birthday"`
	Today      string `json:"today"`
}

// Recipient is who the card is for. Birthday is formatted "01-02".
type Recipient struct {
	Name     string
	Birthday string
}

func (r Recipient) Header(now time.Time) Header {
	h := Header{Today: now.Format("Monday, January 2, 2006")}

	bday, err := time.Parse("01-02", r.Birthday)
	if err != nil {
		h.Greeting = fmt.Sprintf("For %s", r.Name)
		return h
	}

	day := bday.Format("2 January")
	h.IsBirthday = now.Month() == bday.Month() && now.Day() == bday.Day()
	if h.IsBirthday {
		h.Greeting = fmt.Sprintf("Happy Birthday, %s! • %s", r.Name, day)
	} else {
		h.Greeting = fmt.Sprintf("For %s • Birthday on %s", r.Name, day)
	}
	return h
}
