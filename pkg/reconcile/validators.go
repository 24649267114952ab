package reconcile

type ReconcileQuery struct {
	// Apply false previews the fixes without writing them. Defaults to
	// applying.
	Apply *bool `query:"apply" json:"apply,omitempty"`
}
