package content

import (
	"encoding/json"
	"fmt"
)

// UnknownWidget is the placeholder for stored content whose
// type is not (or no longer) registered, or whose payload
// cannot be decoded. It keeps the original payload, so
// cloning or exporting it does not lose data.
type UnknownWidget struct {
	Meta   `json:",inline"`
	Data   json.RawMessage `json:"data,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

var _ Content = (*UnknownWidget)(nil)

func NewUnknownWidget(typ string, data []byte, reason string) *UnknownWidget {
	return &UnknownWidget{
		Meta:   NewMeta(typ),
		Data:   json.RawMessage(data),
		Reason: reason,
	}
}

func (u *UnknownWidget) GetDescription() string {
	return fmt.Sprintf("unknown widget %q (%s)", u.Type, u.Reason)
}

func IsUnknown(c Content) bool {
	_, ok := c.(*UnknownWidget)
	return ok
}
