package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/jdzverify"
	"juodzekas/chain/internal/state"
)

const (
	AppVersion uint64 = 1
)

type JDZApp struct {
	*abci.BaseApplication

	home     string
	verifier jdzverify.Verifier

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string) (*JDZApp, error) {
	return NewWithVerifier(home, jdzverify.NewLocalVerifier())
}

func NewWithVerifier(home string, v jdzverify.Verifier) (*JDZApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	a := &JDZApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		verifier:        v,
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func (a *JDZApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "JDZ (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *JDZApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	// v0: only structural validation; signatures/auth are checked at delivery.
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *JDZApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	// v0: no special genesis handling; config is installed via blackjack/init_config.
	return &abci.InitChainResponse{}, nil
}

func (a *JDZApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *JDZApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	// Persist after each block for devnet durability.
	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

func (a *JDZApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /config
	// - /account/<addr>
	// - /bankroll/<dealer>
	// - /game/<id>
	// - /games            (all games, summaries)
	// - /games/<phase>    (filtered by phase)
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/config":
		if a.st.Config == nil {
			return &abci.QueryResponse{Code: 1, Log: "config not initialized", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(a.st.Config)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil

	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		bal := a.st.Balance(addr)
		b, _ := json.Marshal(map[string]any{"addr": addr, "balance": bal})
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil

	case strings.HasPrefix(path, "/bankroll/"):
		dealer := strings.TrimPrefix(path, "/bankroll/")
		b, _ := json.Marshal(map[string]any{
			"dealer":    dealer,
			"balance":   a.st.Bankroll(dealer),
			"openGames": a.st.DealerHasOpenGames(dealer),
		})
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil

	case strings.HasPrefix(path, "/game/"):
		raw := strings.TrimPrefix(path, "/game/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid game id", Height: a.st.Height}, nil
		}
		g, ok := a.st.Games[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "game not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(g)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil

	case path == "/games" || strings.HasPrefix(path, "/games/"):
		var filter state.GamePhase
		if raw := strings.TrimPrefix(path, "/games"); raw != "" {
			ph, err := state.ParseGamePhase(strings.TrimPrefix(raw, "/"))
			if err != nil {
				return &abci.QueryResponse{Code: 1, Log: "invalid phase filter", Height: a.st.Height}, nil
			}
			filter = ph
		}
		items := a.gameSummaries(filter)
		b, _ := json.Marshal(items)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil

	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: a.st.Height}, nil
	}
}

type gameSummary struct {
	ID     uint64          `json:"id"`
	Dealer string          `json:"dealer"`
	Player string          `json:"player,omitempty"`
	Bet    uint64          `json:"bet,omitempty"`
	Phase  state.GamePhase `json:"phase"`
}

func (a *JDZApp) gameSummaries(filter state.GamePhase) []gameSummary {
	out := make([]gameSummary, 0, len(a.st.Games))
	for _, g := range a.st.Games {
		if filter != "" && g.Phase != filter {
			continue
		}
		out = append(out, gameSummary{ID: g.ID, Dealer: g.Dealer, Player: g.Player, Bet: g.Bet, Phase: g.Phase})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// deliverTx executes one tx against a staged copy of state. Only a fully
// successful tx replaces the working state, so partial writes never leak.
func (a *JDZApp) deliverTx(txBytes []byte, height int64, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}
	staged.Height = height

	res, err := a.applyTx(staged, env, nowUnix)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}
	a.st = staged
	return res
}

func (a *JDZApp) applyTx(st *state.State, env codec.TxEnvelope, nowUnix int64) (*abci.ExecTxResult, error) {
	switch env.Type {
	case "bank/mint":
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad bank/mint value")
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, fmt.Errorf("missing to/amount")
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return okEvent("BankMinted", map[string]string{
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad bank/send value")
		}
		if msg.From == "" || msg.To == "" || msg.Amount == 0 {
			return nil, fmt.Errorf("missing from/to/amount")
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return nil, err
		}
		if err := st.Debit(msg.From, msg.Amount); err != nil {
			return nil, err
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return okEvent("BankSent", map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad auth/register_account value")
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return nil, err
		}
		if existing, ok := st.AccountKeys[msg.Account]; ok && len(existing) > 0 {
			return nil, fmt.Errorf("account %q already registered", msg.Account)
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return okEvent("AccountRegistered", map[string]string{
			"account": msg.Account,
		}), nil

	case "blackjack/init_config":
		var msg codec.BlackjackInitConfigTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/init_config value")
		}
		if err := requireAccountAuth(st, env, msg.Sender); err != nil {
			return nil, err
		}
		return initConfig(st, msg)

	case "blackjack/create_game":
		var msg codec.BlackjackCreateGameTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/create_game value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return nil, err
		}
		return createGame(st, a.verifier, msg, nowUnix)

	case "blackjack/join_game":
		var msg codec.BlackjackJoinGameTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/join_game value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return joinGame(st, a.verifier, msg, nowUnix)

	case "blackjack/hit":
		var msg codec.BlackjackHitTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/hit value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return hit(st, msg, nowUnix)

	case "blackjack/stand":
		var msg codec.BlackjackStandTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/stand value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return stand(st, msg, nowUnix)

	case "blackjack/double_down":
		var msg codec.BlackjackDoubleDownTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/double_down value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return doubleDown(st, msg, nowUnix)

	case "blackjack/split":
		var msg codec.BlackjackSplitTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/split value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return split(st, msg, nowUnix)

	case "blackjack/surrender":
		var msg codec.BlackjackSurrenderTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/surrender value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return surrender(st, msg, nowUnix)

	case "blackjack/insurance":
		var msg codec.BlackjackInsuranceTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/insurance value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return insurance(st, msg, nowUnix)

	case "blackjack/decline_insurance":
		var msg codec.BlackjackDeclineInsuranceTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/decline_insurance value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return declineInsurance(st, msg, nowUnix)

	case "blackjack/submit_reveal":
		var msg codec.BlackjackSubmitRevealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/submit_reveal value")
		}
		if err := requireAccountAuth(st, env, msg.Sender); err != nil {
			return nil, err
		}
		return submitReveal(st, a.verifier, msg, nowUnix)

	case "blackjack/claim_timeout":
		var msg codec.BlackjackClaimTimeoutTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/claim_timeout value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		return claimTimeout(st, msg, nowUnix)

	case "blackjack/cancel_game":
		var msg codec.BlackjackCancelGameTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/cancel_game value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return nil, err
		}
		return cancelGame(st, msg)

	case "blackjack/sweep_settled":
		var msg codec.BlackjackSweepSettledTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/sweep_settled value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		return sweepSettled(st, msg)

	case "blackjack/deposit_bankroll":
		var msg codec.BlackjackDepositBankrollTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/deposit_bankroll value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return nil, err
		}
		return depositBankroll(st, msg)

	case "blackjack/withdraw_bankroll":
		var msg codec.BlackjackWithdrawBankrollTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad blackjack/withdraw_bankroll value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return nil, err
		}
		return withdrawBankroll(st, msg)

	default:
		return nil, fmt.Errorf("unknown tx type: %s", env.Type)
	}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}
