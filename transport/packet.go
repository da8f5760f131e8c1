package transport

// PacketResult is the outcome of the optional native fast-path submission.
type PacketResult struct {
	Accepted   bool
	QueueDepth int
	Error      string
}

// SubmitPacket is the optional native ingress for pre-canonicalized binary
// packets, bypassing per-request JSON parsing. It is not a substitute for
// the admission pipeline: any real implementation MUST still route the
// packet's payload through Schema, Canonicalize, Hash, Verify, and Ruleset
// before treating it as accepted. No native extension is linked into this
// build, so this always reports unavailable — mirroring the reference
// client's behavior when its optional native module fails to import.
func SubmitPacket(eventIDHi, eventIDLo uint64, sequence uint64, unixNS int64, payload []byte, flags uint32) PacketResult {
	return PacketResult{Accepted: false, Error: "native packet extension not available"}
}
