package cryptox

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
)

// HashAlgorithm is the only content and reference hash in use.
const HashAlgorithm = "sha256"

var (
	ErrMalformedHashes    = errors.New("malformed 'hashes'")
	ErrMissingAlgorithm   = errors.New("hash algorithm not in hashes")
	ErrInvalidBase64      = errors.New("invalid base64")
	ErrMissingSignature   = errors.New("event is not signed by key")
	ErrInvalidSignature   = errors.New("event signature does not verify")
	ErrMalformedSignature = errors.New("malformed signature")
)

// Event is a federation event in its JSON object form.
type Event = map[string]any

var prunedTopLevel = map[string]bool{
	"event_id":         true,
	"type":             true,
	"room_id":          true,
	"sender":           true,
	"state_key":        true,
	"content":          true,
	"hashes":           true,
	"signatures":       true,
	"depth":            true,
	"prev_events":      true,
	"prev_state":       true,
	"auth_events":      true,
	"origin":           true,
	"origin_server_ts": true,
	"membership":       true,
}

var prunedContent = map[string][]string{
	"m.room.member":       {"membership"},
	"m.room.create":       {"creator"},
	"m.room.join_rules":   {"join_rule"},
	"m.room.power_levels": {"users", "users_default", "events", "events_default", "state_default", "ban", "kick", "redact"},
	"m.room.aliases":      {"aliases"},
}

// PruneEvent returns the redacted form of event: only protocol keys survive
// at the top level and content keeps only what its type needs.
func PruneEvent(event Event) Event {
	out := make(Event, len(prunedTopLevel))
	for k, v := range event {
		if prunedTopLevel[k] {
			out[k] = v
		}
	}

	content, _ := event["content"].(map[string]any)
	kept := make(map[string]any)
	evType, _ := event["type"].(string)
	for _, k := range prunedContent[evType] {
		if v, ok := content[k]; ok {
			kept[k] = v
		}
	}
	out["content"] = kept

	if unsigned, ok := event["unsigned"].(map[string]any); ok {
		if ageTS, ok := unsigned["age_ts"]; ok {
			out["age_ts"] = ageTS
		}
	}

	return out
}

func without(event Event, keys ...string) Event {
	out := make(Event, len(event))
	for k, v := range event {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ComputeContentHash hashes the event as sent, minus the keys that change in
// transit.
func ComputeContentHash(event Event) (string, []byte, error) {
	b, err := EncodeCanonicalJSON(without(event, "age_ts", "unsigned", "signatures", "hashes", "outlier", "destinations"))
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return HashAlgorithm, sum[:], nil
}

// CheckContentHash reports whether the hash recorded in the event matches
// its content. A missing or malformed hashes object is an error.
func CheckContentHash(event Event) (bool, error) {
	name, expected, err := ComputeContentHash(event)
	if err != nil {
		return false, err
	}

	hashes, ok := event["hashes"].(map[string]any)
	if !ok {
		return false, ErrMalformedHashes
	}
	raw, ok := hashes[name]
	if !ok {
		return false, fmt.Errorf("%w: %s not in %v", ErrMissingAlgorithm, name, sortedKeys(hashes))
	}
	s, ok := raw.(string)
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrInvalidBase64, raw)
	}
	got, err := DecodeBase64(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidBase64, s)
	}

	return bytes.Equal(got, expected), nil
}

// ComputeReferenceHash hashes the pruned event, so redactions keep the
// reference stable.
func ComputeReferenceHash(event Event) (string, []byte, error) {
	b, err := EncodeCanonicalJSON(without(PruneEvent(event), "signatures", "age_ts", "unsigned"))
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return HashAlgorithm, sum[:], nil
}

// Signatures maps entity name to key id to unpadded base64 signature.
type Signatures map[string]map[string]string

// SignJSON signs obj as name with key, covering everything except the
// signatures and unsigned keys, and returns obj's signatures including the
// new one. obj is not modified.
func SignJSON(obj map[string]any, name string, key SigningKey) (Signatures, error) {
	msg, err := signedBytes(obj)
	if err != nil {
		return nil, err
	}

	sigs, err := readSignatures(obj["signatures"])
	if err != nil {
		return nil, err
	}
	if sigs[name] == nil {
		sigs[name] = make(map[string]string)
	}
	sigs[name][key.KeyID()] = EncodeBase64(ed25519.Sign(key.Key, msg))
	return sigs, nil
}

// VerifyJSON checks the signature of name under keyID on obj.
func VerifyJSON(obj map[string]any, name, keyID string, pub ed25519.PublicKey) error {
	sigs, err := readSignatures(obj["signatures"])
	if err != nil {
		return err
	}
	sig, ok := sigs[name][keyID]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrMissingSignature, name, keyID)
	}
	raw, err := DecodeBase64(sig)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBase64, sig)
	}

	msg, err := signedBytes(obj)
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, msg, raw) {
		return ErrInvalidSignature
	}
	return nil
}

// ComputeEventSignature signs the pruned event as name with key and returns
// the event's signatures including the new one.
func ComputeEventSignature(event Event, name string, key SigningKey) (Signatures, error) {
	return SignJSON(without(PruneEvent(event), "age_ts", "unsigned"), name, key)
}

// AddHashesAndSignatures sets the content hash and then the signature on
// event in place.
func AddHashesAndSignatures(event Event, name string, key SigningKey) error {
	alg, digest, err := ComputeContentHash(event)
	if err != nil {
		return err
	}

	hashes, _ := event["hashes"].(map[string]any)
	if hashes == nil {
		hashes = make(map[string]any)
	}
	hashes[alg] = EncodeBase64(digest)
	event["hashes"] = hashes

	sigs, err := ComputeEventSignature(event, name, key)
	if err != nil {
		return err
	}
	event["signatures"] = sigs.asJSON()
	return nil
}

// VerifyEventSignature checks the signature of name under keyID on the
// pruned event.
func VerifyEventSignature(event Event, name, keyID string, pub ed25519.PublicKey) error {
	return VerifyJSON(without(PruneEvent(event), "age_ts", "unsigned"), name, keyID, pub)
}

// signedBytes is the canonical form a signature covers.
func signedBytes(event Event) ([]byte, error) {
	return EncodeCanonicalJSON(without(event, "signatures", "unsigned"))
}

func readSignatures(v any) (Signatures, error) {
	out := make(Signatures)
	switch x := v.(type) {
	case nil:
	case Signatures:
		for name, keys := range x {
			out[name] = make(map[string]string, len(keys))
			for id, sig := range keys {
				out[name][id] = sig
			}
		}
	case map[string]any:
		for name, raw := range x {
			keys, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: signatures for %s", ErrMalformedSignature, name)
			}
			out[name] = make(map[string]string, len(keys))
			for id, sig := range keys {
				s, ok := sig.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s %s", ErrMalformedSignature, name, id)
				}
				out[name][id] = s
			}
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrMalformedSignature, v)
	}
	return out, nil
}

func (s Signatures) asJSON() map[string]any {
	out := make(map[string]any, len(s))
	for name, keys := range s {
		m := make(map[string]any, len(keys))
		for id, sig := range keys {
			m[id] = sig
		}
		out[name] = m
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
