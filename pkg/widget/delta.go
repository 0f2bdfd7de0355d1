package widget

import (
	serrors "github.com/strand-ui/strand/internal/errors"
)

// Framework-common delta keys handled by the engine before widget-specific
// delegation.
const (
	// KeyMargin is [left, top, right, bottom] in pixels.
	KeyMargin = "margin"
	// KeyAlign is [x, y], each null (stretch) or a fraction in [0,1].
	KeyAlign = "align"
	// KeyScroll is [x, y], each "never", "auto", or "always".
	KeyScroll = "scroll"
	// KeyMinSize is [width, height] in pixels.
	KeyMinSize = "min_size"
	// KeyRole is the accessibility role for the primary node.
	KeyRole = "role"
	// KeyKind is the component kind discriminator. Valid only at creation.
	KeyKind = "kind"
)

// ApplyDelta applies a server-originated partial state update to c: the
// framework-common keys first, then the remainder through the widget's own
// handler. Safe to call with an empty delta. Widget-handler errors are
// returned but are local to the widget; callers log them and continue the
// pass.
func (t *Tree) ApplyDelta(c *Component, delta Delta) error {
	return t.applyDelta(c, delta, OriginServer)
}

// ApplyLocally applies a delta that must not round-trip to the server, such
// as live drag feedback. Passive observers are still notified.
func (c *Component) ApplyLocally(t *Tree, delta Delta) error {
	return t.applyDelta(c, delta, OriginLocal)
}

// ApplyAndNotify applies the delta locally and then forwards the exact same
// delta to the server, keeping the server's view bit-for-bit consistent with
// the client's.
func (c *Component) ApplyAndNotify(t *Tree, delta Delta) error {
	err := c.ApplyLocally(t, delta)
	if err == nil && t.outbox != nil && len(delta) > 0 {
		t.outbox.SendStateUpdate(c.id, delta)
	}
	return err
}

// EmitUserEvent forwards a widget-defined, non-state event payload to the
// server. Fire-and-forget.
func (c *Component) EmitUserEvent(t *Tree, payload map[string]any) {
	if t.outbox != nil {
		t.outbox.SendUserEvent(c.id, payload)
	}
}

func (t *Tree) applyDelta(c *Component, delta Delta, origin Origin) error {
	if c.destroyed {
		panic(serrors.New("E104").WithComponent(c.id))
	}
	if len(delta) == 0 {
		return nil
	}
	t.stats.Deltas++

	t.applyCommon(c, delta)

	rest := make(Delta)
	for key, value := range delta {
		if isCommonKey(key) {
			continue
		}
		c.state[key] = value
		rest[key] = value
	}

	var err error
	if len(rest) > 0 {
		if werr := c.widget.ApplyDelta(t, c, rest); werr != nil {
			err = serrors.FromError(werr, "E150").WithComponent(c.id)
		}
	}

	for _, o := range t.observers {
		o.ComponentUpdated(c, delta, origin)
	}
	return err
}

// applyCommon handles the framework-common keys: wrapper state, minimum
// size, accessibility role, and the immutable kind discriminator.
func (t *Tree) applyCommon(c *Component, delta Delta) {
	if v, ok := delta[KeyKind]; ok {
		if s, _ := v.(string); s != c.kind {
			panic(serrors.New("E103").WithComponent(c.id).
				WithDetail("kind %q, delta carried %q", c.kind, s))
		}
		t.logger.Debug("ignoring redundant kind field", "component", c.id)
	}

	if v, ok := delta[KeyMargin]; ok {
		if m, err := asMargin(v); err != nil {
			t.WarnMalformed(c, KeyMargin, err)
		} else {
			c.state[KeyMargin] = m
			t.setMargin(c, m)
		}
	}

	if v, ok := delta[KeyAlign]; ok {
		if a, err := asAlignment(v); err != nil {
			t.WarnMalformed(c, KeyAlign, err)
		} else {
			c.state[KeyAlign] = a
			t.setAlignment(c, a)
		}
	}

	if v, ok := delta[KeyScroll]; ok {
		if s, err := asScroll(v); err != nil {
			t.WarnMalformed(c, KeyScroll, err)
		} else {
			c.state[KeyScroll] = s
			t.setScroll(c, s)
		}
	}

	if v, ok := delta[KeyMinSize]; ok {
		if wh, err := asFloatPair(v); err != nil {
			t.WarnMalformed(c, KeyMinSize, err)
		} else {
			c.state[KeyMinSize] = wh
			c.node.SetStyle("min-width", px(wh[0]))
			c.node.SetStyle("min-height", px(wh[1]))
		}
	}

	if v, ok := delta[KeyRole]; ok {
		role, _ := v.(string)
		c.state[KeyRole] = role
		if role == "" {
			c.node.RemoveAttr("role")
		} else {
			c.node.SetAttr("role", role)
		}
	}
}

func isCommonKey(key string) bool {
	switch key {
	case KeyMargin, KeyAlign, KeyScroll, KeyMinSize, KeyRole, KeyKind:
		return true
	}
	return false
}

// WarnMalformed records a malformed delta field. Malformed and unknown
// fields are tolerated (protocol skew between client and server versions),
// never fatal.
func (t *Tree) WarnMalformed(c *Component, key string, err error) {
	t.logger.Warn("ignoring malformed delta field",
		"component", c.id, "field", key, "error", err)
}

// WarnUnknownField records a delta field no handler recognized.
func (t *Tree) WarnUnknownField(c *Component, key string) {
	t.logger.Debug("ignoring unknown delta field",
		"component", c.id, "field", key)
}
