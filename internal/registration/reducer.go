package registration

// Action is a named state transition. The set is closed: only the types in
// this file implement it.
type Action interface {
	action()
}

// Changed sets a field's value and runs its immediate rules.
type Changed struct {
	Field Field
	Value string
}

// Settled runs a field's debounced rules. When they pass and NoRequest is
// false, the field's CheckCount increments, asking for a uniqueness request.
type Settled struct {
	Field     Field
	NoRequest bool
}

// UniqueResult delivers a uniqueness answer. Token is the CheckCount the
// request was issued under and Value the value it asked about.
type UniqueResult struct {
	Field  Field
	Value  string
	Token  int
	Unique bool
}

// ToggleTerms flips the agree-to-terms box.
type ToggleTerms struct{}

// Submit re-validates every field without new uniqueness requests, checks the
// terms box, and increments SubmitCount when the draft is valid.
type Submit struct{}

func (Changed) action()      {}
func (Settled) action()      {}
func (UniqueResult) action() {}
func (ToggleTerms) action()  {}
func (Submit) action()       {}

// Reduce returns the draft that results from applying a to d.
// Unknown fields and actions leave d unchanged.
func Reduce(d Draft, a Action) Draft {
	switch a := a.(type) {
	case Changed:
		d.change(a.Field, a.Value)
	case Settled:
		d.settle(a.Field, a.NoRequest)
	case UniqueResult:
		d.applyUnique(a)
	case ToggleTerms:
		d.toggleTerms()
	case Submit:
		d.submit()
	}
	return d
}

// ReduceAll applies actions in order.
func ReduceAll(d Draft, actions ...Action) Draft {
	for _, a := range actions {
		d = Reduce(d, a)
	}
	return d
}

func (d *Draft) change(f Field, value string) {
	fs := d.ref(f)
	if fs == nil || f == AgreeToTerms {
		return
	}
	if fs.Value != value {
		fs.IsUnique = false
		fs.Checked = false
	}
	fs.Value = value
	fs.HasErrors = false
	fs.Message = ""
	if msg := ImmediateError(f, value); msg != "" {
		fs.HasErrors = true
		fs.Message = msg
	}
}

func (d *Draft) settle(f Field, noRequest bool) {
	fs := d.ref(f)
	if fs == nil {
		return
	}
	if msg := SettledError(f, fs.Value, d.password.Value); msg != "" {
		fs.HasErrors = true
		fs.Message = msg
	}
	if !fs.HasErrors && !noRequest && f.Unique() {
		fs.CheckCount++
	}
}

func (d *Draft) applyUnique(r UniqueResult) {
	fs := d.ref(r.Field)
	if fs == nil || !r.Field.Unique() {
		return
	}
	// Stale: a newer request was issued or the value moved on.
	if r.Token != fs.CheckCount || r.Value != fs.Value {
		return
	}
	fs.Checked = true
	fs.IsUnique = r.Unique
	if !r.Unique {
		fs.HasErrors = true
		fs.Message = TakenMessage(r.Field)
	}
}

func (d *Draft) toggleTerms() {
	if d.agreeToTerms.Value == termsChecked {
		d.agreeToTerms.Value = ""
	} else {
		d.agreeToTerms.Value = termsChecked
	}
	d.agreeToTerms.HasErrors = false
	d.agreeToTerms.Message = ""
}

func (d *Draft) submit() {
	d.agreeToTerms.HasErrors = false
	d.agreeToTerms.Message = ""
	if !d.AgreedToTerms() {
		d.agreeToTerms.HasErrors = true
		d.agreeToTerms.Message = MsgTermsRequired
	}

	for _, f := range TextFields() {
		fs := d.ref(f)
		d.change(f, fs.Value)
		d.settle(f, true)
		// The value did not change, so a taken answer still applies.
		if fs.Taken() && !fs.HasErrors {
			fs.HasErrors = true
			fs.Message = TakenMessage(f)
		}
	}

	if d.Valid() {
		d.SubmitCount++
	}
}
