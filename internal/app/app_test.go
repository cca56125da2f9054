package app

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"strconv"
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/jdzverify"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func txBytes(t *testing.T, typ string, value any) []byte {
	t.Helper()
	return mustMarshal(t, map[string]any{
		"type":  typ,
		"value": value,
	})
}

// testNonces hands out globally increasing nonces per signer. Fresh apps
// start at nonce 0, so an ever-growing counter is always acceptable.
var testNonces = map[string]uint64{}

func nextTestNonce(signer string) string {
	testNonces[signer]++
	return strconv.FormatUint(testNonces[signer], 10)
}

func testEd25519Key(name string) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := sha256.Sum256([]byte("jdz/test/ed25519/" + name))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return priv.Public().(ed25519.PublicKey), priv
}

func txBytesSigned(t *testing.T, typ string, value any, signer string) []byte {
	t.Helper()
	valueBytes := mustMarshal(t, value)
	nonce := nextTestNonce(signer)
	_, priv := testEd25519Key(signer)
	msg := txAuthSignBytesV0(typ, valueBytes, nonce, signer)
	env := codec.TxEnvelope{
		Type:   typ,
		Value:  valueBytes,
		Nonce:  nonce,
		Signer: signer,
		Sig:    ed25519.Sign(priv, msg),
	}
	return mustMarshal(t, env)
}

func findEvent(events []abci.Event, typ string) *abci.Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

func attr(ev *abci.Event, key string) string {
	if ev == nil {
		return ""
	}
	for _, a := range ev.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func parseU64(t *testing.T, s string) uint64 {
	t.Helper()
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		t.Fatalf("parse uint64 %q: %v", s, err)
	}
	return n
}

func newTestApp(t *testing.T) *JDZApp {
	t.Helper()
	a, err := NewWithVerifier(t.TempDir(), &jdzverify.StaticVerifier{Result: true})
	if err != nil {
		t.Fatalf("NewWithVerifier: %v", err)
	}
	return a
}

func newLocalVerifierApp(t *testing.T) *JDZApp {
	t.Helper()
	a, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func mustOk(t *testing.T, res *abci.ExecTxResult) *abci.ExecTxResult {
	t.Helper()
	if res.Code != 0 {
		t.Fatalf("expected ok, got code=%d log=%q", res.Code, res.Log)
	}
	return res
}

func mustFail(t *testing.T, res *abci.ExecTxResult) *abci.ExecTxResult {
	t.Helper()
	if res.Code == 0 {
		t.Fatalf("expected failure, got ok")
	}
	return res
}

func mintTestTokens(t *testing.T, a *JDZApp, height int64, to string, amount uint64) {
	t.Helper()
	mustOk(t, a.deliverTx(txBytes(t, "bank/mint", map[string]any{"to": to, "amount": amount}), height, 0))
}

func registerTestAccount(t *testing.T, a *JDZApp, height int64, name string) {
	t.Helper()
	pub, _ := testEd25519Key(name)
	mustOk(t, a.deliverTx(txBytesSigned(t, "auth/register_account", map[string]any{
		"account": name,
		"pubKey":  []byte(pub),
	}, name), height, 0))
}

// baseConfigTx is a 3:2 table with a 10s liveness window.
func baseConfigTx(sender string) map[string]any {
	return map[string]any{
		"sender":            sender,
		"minBet":            10,
		"maxBet":            1000,
		"blackjackPayout":   map[string]any{"numerator": 3, "denominator": 2},
		"standardPayout":    map[string]any{"numerator": 1, "denominator": 1},
		"insurancePayout":   map[string]any{"numerator": 2, "denominator": 1},
		"dealerHitsSoft17":  false,
		"dealerPeeks":       true,
		"doubleRestriction": "any",
		"maxSplits":         3,
		"canSplitAces":      true,
		"canHitSplitAces":   false,
		"surrenderAllowed":  true,
		"timeoutSecs":       10,
		"shuffleVkeyId":     jdzverify.DefaultShuffleVKeyID,
		"revealVkeyId":      jdzverify.DefaultRevealVKeyID,
	}
}

func initTestConfig(t *testing.T, a *JDZApp, height int64, sender string, mutate func(map[string]any)) {
	t.Helper()
	cfg := baseConfigTx(sender)
	if mutate != nil {
		mutate(cfg)
	}
	mustOk(t, a.deliverTx(txBytesSigned(t, "blackjack/init_config", cfg, sender), height, 0))
}

func queryJSON(t *testing.T, a *JDZApp, path string, out any) {
	t.Helper()
	res, err := a.Query(context.Background(), &abci.QueryRequest{Path: path})
	if err != nil {
		t.Fatalf("query %s: %v", path, err)
	}
	if res.Code != 0 {
		t.Fatalf("query %s: code=%d log=%q", path, res.Code, res.Log)
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		t.Fatalf("query %s: decode: %v", path, err)
	}
}
