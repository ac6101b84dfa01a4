package sync

// decisionInput bundles the decision function's inputs (spec §4.3). Pointer
// fields are nil when the corresponding side is absent.
type decisionInput struct {
	localExists bool
	cloudExists bool
	localMtime  int64
	cloudMtime  int64
	metaLocal   *int64
	metaCloud   *int64
}

// changed reports whether mtime has advanced past meta, treating an absent
// meta value as "always changed" (spec §4.3: "meta_local_mtime is absent, or
// local_mtime > meta_local_mtime").
func changed(mtime int64, meta *int64) bool {
	return meta == nil || mtime > *meta
}

// decide implements the exact nine-row truth table of spec §4.3. It is a
// pure function: no I/O, no side effects, deterministic given its inputs.
func decide(in decisionInput) Action {
	switch {
	case !in.localExists && !in.cloudExists:
		return ActionSkip
	case in.localExists && !in.cloudExists:
		return ActionUpload
	case !in.localExists && in.cloudExists:
		return ActionDownload
	}

	localChanged := changed(in.localMtime, in.metaLocal)
	cloudChanged := changed(in.cloudMtime, in.metaCloud)

	switch {
	case localChanged && cloudChanged:
		switch {
		case in.localMtime > in.cloudMtime:
			return ActionUpload
		case in.cloudMtime > in.localMtime:
			return ActionDownload
		default:
			return ActionConflict
		}
	case localChanged:
		return ActionUpload
	case cloudChanged:
		return ActionDownload
	default:
		return ActionSkip
	}
}
