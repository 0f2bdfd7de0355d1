package client

import (
	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/dom"
)

// errorPlaceholder builds the node shown in place of a subtree lost to an
// integrity error. An explicit marker beats a blank screen: the user sees
// that something broke and where, and tooling can find it by attribute.
func errorPlaceholder(se *serrors.StrandError) *dom.Node {
	n := dom.New("div")
	n.SetAttr("data-strand-error", se.Code)
	n.SetAttr("role", "alert")
	if se.ComponentID != "" {
		n.SetAttr("data-strand-component", se.ComponentID)
	}

	msg := dom.New("span")
	msg.Text = "Something went wrong rendering this part of the page."
	n.AppendChild(msg)

	detail := dom.New("span")
	detail.Text = se.Error()
	detail.SetStyle("display", "none")
	n.AppendChild(detail)

	return n
}
