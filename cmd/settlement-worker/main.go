package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/settlement"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/db"
	"github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/internal/shared/logger"
	ev "github.com/radieske/bet-ledger/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: o worker aplica as transições direto no store durável
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	store := ledger.NewPostgres(pg)
	engine := settlement.NewEngine(log, store)

	// Kafka consumer: pedidos de liquidação vindos da fonte de resultados
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSettlementRequested, "settlement-worker")
	defer reader.Close()

	// Kafka producers: evento bet_settled e DLQ pra mensagens venenosas
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicSettlementRequestedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementRequestedDLQ)
		defer dlqWriter.Close()
	}

	// Métricas do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_messages_consumed_total", Help: "pedidos de liquidação consumidos"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_settled_total", Help: "apostas liquidadas por desfecho"}, []string{"outcome"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	// Servidor HTTP para métricas Prometheus e healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(ctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicSettlementRequested),
		zap.String("publish", cfg.TopicBetSettled),
	)

	ctx := context.Background()

	// Loop principal: consome pedidos, liquida e publica o resultado
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var req ev.SettlementRequested
		if jerr := json.Unmarshal(msg.Value, &req); jerr != nil {
			errorsBy.WithLabelValues("unmarshal").Inc()
			log.Error("unmarshal settlement_requested", zap.Error(jerr))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			continue
		}

		if err := processOne(ctx, log, engine, settledWriter, dlqWriter, &req); err != nil {
			errorsBy.WithLabelValues("settle").Inc()
			log.Error("process settlement", zap.String("betId", req.BetID), zap.Error(err))
			// Backoff simples pra evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
			continue
		}
		settled.WithLabelValues(req.Outcome).Inc()
	}
}

// processOne aplica um pedido de liquidação:
// 1. Valida o desfecho; inválido vai direto pra DLQ
// 2. Liquida via engine (transição + crédito atômicos)
// 3. Entrega duplicada (AlreadySettled) e aposta inexistente são ack com warn
// 4. Falha de armazenamento é retentada; persistindo, vai pra DLQ
// 5. Publica evento bet_settled
func processOne(
	ctx context.Context,
	log *zap.Logger,
	engine *settlement.Engine,
	settledWriter *kafkago.Writer,
	dlqWriter *kafkago.Writer,
	req *ev.SettlementRequested,
) error {
	outcome, err := settlement.ParseOutcome(req.Outcome)
	if err != nil {
		log.Error("invalid outcome", zap.String("betId", req.BetID), zap.String("outcome", req.Outcome))
		if dlqWriter != nil {
			_ = kafka.WriteJSON(ctx, dlqWriter, req.BetID, mustJSON(req))
		}
		return nil
	}

	bet, err := engine.Settle(ctx, req.BetID, outcome)
	if err != nil {
		// Kafka entrega ao-menos-uma-vez: repetição não pode creditar de novo,
		// então AlreadySettled aqui é esperado e só gera warn
		if errors.Is(err, ledger.ErrAlreadySettled) || errors.Is(err, ledger.ErrNotFound) {
			log.Warn("settlement skipped", zap.String("betId", req.BetID), zap.Error(err))
			return nil
		}

		// Retry simples: tenta mais 3 vezes antes de enviar pra DLQ
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if bet, err = engine.Settle(ctx, req.BetID, outcome); err == nil {
				break
			}
			if errors.Is(err, ledger.ErrAlreadySettled) || errors.Is(err, ledger.ErrNotFound) {
				log.Warn("settlement skipped", zap.String("betId", req.BetID), zap.Error(err))
				return nil
			}
		}
		if err != nil {
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, req.BetID, mustJSON(req))
			}
			return err
		}
	}

	evc := ev.BetSettled{
		BetID:       bet.ID,
		UserID:      bet.Owner,
		Outcome:     string(outcome),
		CreditCents: creditFor(bet),
		Ts:          time.Now(),
	}
	return kafka.WriteJSON(ctx, settledWriter, bet.ID, mustJSON(evc))
}

// creditFor reconstrói o crédito aplicado a partir do estado terminal.
func creditFor(b *ledger.Bet) int64 {
	switch b.Status {
	case ledger.StatusWon:
		return b.PotentialPayoutCents()
	case ledger.StatusVoid:
		return b.StakeCents
	}
	return 0
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
