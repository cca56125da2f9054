package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type State struct {
	Height int64 `json:"height"`

	NextGameID  uint64            `json:"nextGameId"`
	Accounts    map[string]uint64 `json:"accounts"`
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection

	Config *Config `json:"config,omitempty"`

	Games map[uint64]*GameSession `json:"games"`

	// Bankrolls is the per-dealer house ledger. Funds move bank -> ledger via
	// deposits and ledger -> game escrow at game creation.
	Bankrolls map[string]uint64 `json:"bankrolls,omitempty"`
}

func NewState() *State {
	return &State{
		Height:      0,
		NextGameID:  1,
		Accounts:    map[string]uint64{},
		AccountKeys: map[string][]byte{},
		NonceMax:    map[string]uint64{},
		Games:       map[uint64]*GameSession{},
		Bankrolls:   map[string]uint64{},
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	normalize(&st)
	return &st, nil
}

func normalize(st *State) {
	if st.Accounts == nil {
		st.Accounts = map[string]uint64{}
	}
	if st.AccountKeys == nil {
		st.AccountKeys = map[string][]byte{}
	}
	if st.NonceMax == nil {
		st.NonceMax = map[string]uint64{}
	}
	if st.Games == nil {
		st.Games = map[uint64]*GameSession{}
	}
	if st.Bankrolls == nil {
		st.Bankrolls = map[string]uint64{}
	}
	if st.NextGameID == 0 {
		st.NextGameID = 1
	}
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	normalize(&out)
	return &out, nil
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// Note: encoding/json does NOT guarantee map key order, so we manually
	// normalize maps into slices.
	type accountKV struct {
		Addr    string `json:"addr"`
		Balance uint64 `json:"balance"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type gameKV struct {
		ID   uint64       `json:"id"`
		Game *GameSession `json:"game"`
	}
	type bankrollKV struct {
		Dealer  string `json:"dealer"`
		Balance uint64 `json:"balance"`
	}

	accounts := make([]accountKV, 0, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts = append(accounts, accountKV{Addr: k, Balance: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Addr < accounts[j].Addr })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	games := make([]gameKV, 0, len(s.Games))
	for id, g := range s.Games {
		games = append(games, gameKV{ID: id, Game: g})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })

	bankrolls := make([]bankrollKV, 0, len(s.Bankrolls))
	for k, v := range s.Bankrolls {
		bankrolls = append(bankrolls, bankrollKV{Dealer: k, Balance: v})
	}
	sort.Slice(bankrolls, func(i, j int) bool { return bankrolls[i].Dealer < bankrolls[j].Dealer })

	normalized := struct {
		Height      int64          `json:"height"`
		NextGameID  uint64         `json:"nextGameId"`
		Accounts    []accountKV    `json:"accounts"`
		AccountKeys []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax    []nonceKV      `json:"nonceMax,omitempty"`
		Config      *Config        `json:"config,omitempty"`
		Games       []gameKV       `json:"games"`
		Bankrolls   []bankrollKV   `json:"bankrolls,omitempty"`
	}{
		Height:      s.Height,
		NextGameID:  s.NextGameID,
		Accounts:    accounts,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
		Config:      s.Config,
		Games:       games,
		Bankrolls:   bankrolls,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr string) uint64 {
	return s.Accounts[addr]
}

func (s *State) Credit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	s.Accounts[addr] = bal + amount
	return nil
}

func (s *State) Debit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	s.Accounts[addr] = bal - amount
	return nil
}

// ---- Bankroll ledger ----

func (s *State) Bankroll(dealer string) uint64 {
	return s.Bankrolls[dealer]
}

func (s *State) BankrollCredit(dealer string, amount uint64) error {
	bal := s.Bankrolls[dealer]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("bankroll overflow: have=%d add=%d", bal, amount)
	}
	s.Bankrolls[dealer] = bal + amount
	return nil
}

func (s *State) BankrollDebit(dealer string, amount uint64) error {
	bal := s.Bankrolls[dealer]
	if bal < amount {
		return fmt.Errorf("insufficient bankroll: have=%d need=%d", bal, amount)
	}
	s.Bankrolls[dealer] = bal - amount
	return nil
}

// DealerHasOpenGames reports whether any game bound to dealer is not yet
// settled. Bankroll withdrawals are blocked while this holds.
func (s *State) DealerHasOpenGames(dealer string) bool {
	for _, g := range s.Games {
		if g.Dealer == dealer && g.Phase != PhaseSettled {
			return true
		}
	}
	return false
}
