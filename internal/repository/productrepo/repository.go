package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/cache"
	"marketplace/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%d"

const (
	nextIDSQL = `
		UPDATE registry_state
		SET product_count = product_count + 1
		WHERE id = 1
		RETURNING product_count`

	insertProductSQL = `
		INSERT INTO products (id, name, price, owner_id, purchased, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectProductSQL = `
		SELECT id, name, price, owner_id, purchased, created_at, updated_at
		FROM products
		WHERE id = $1`

	lockAccountsSQL = `
		SELECT id FROM accounts
		WHERE id IN ($1, $2)
		ORDER BY id
		FOR NO KEY UPDATE`

	lockRegistrySQL = `
		SELECT product_count
		FROM registry_state
		WHERE id = 1
		FOR UPDATE`

	debitSQL = `
		UPDATE accounts
		SET balance = balance - $1, updated_at = $2
		WHERE id = $3 AND balance >= $1`

	creditSQL = `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3`

	markSoldSQL = `
		UPDATE products
		SET owner_id = $1, purchased = TRUE, updated_at = $2
		WHERE id = $3 AND purchased = FALSE`

	insertEventSQL = `
		INSERT INTO product_events (event_id, type, product_id, name, price, owner_id, purchased, payment, seller_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sequence`

	listProductsSQL = `
		SELECT id, name, price, owner_id, purchased, created_at, updated_at
		FROM products
		ORDER BY id
		LIMIT $1 OFFSET $2`

	countSQL = `SELECT product_count FROM registry_state WHERE id = 1`

	listEventsSQL = `
		SELECT sequence, event_id, type, product_id, name, price, owner_id, purchased, payment, seller_id, occurred_at
		FROM product_events
		WHERE sequence > $1
		ORDER BY sequence
		LIMIT $2`
)

// ProductRepository implementa domain.ProductRepository sobre PostgreSQL,
// com leitura Cache-Aside no Redis.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente de cache (Redis); nil desabilita o cache
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Owner, &p.Purchased, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create registra um novo produto. O contador do registro é incrementado sob lock de linha,
// o que mantém os IDs densos e sequenciais mesmo com criações concorrentes.
func (r *ProductRepository) Create(ctx context.Context, name string, price int64, owner string) (domain.ProductEvent, error) {
	r.logger.Debug("Iniciando criação de produto no repositório.", map[string]interface{}{"name": name, "price": price, "owner": owner})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de criação de produto.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	// 1. Próximo ID (bloqueia a linha do contador até o commit)
	var id int64
	if err := tx.QueryRowContext(ctxTimeout, nextIDSQL).Scan(&id); err != nil {
		r.logger.Error("Falha ao incrementar o contador de produtos.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao gerar ID do produto", err)
	}

	// 2. Inserir o produto
	now := time.Now().UTC()
	product := domain.Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Owner:     owner,
		Purchased: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.ExecContext(ctxTimeout, insertProductSQL,
		product.ID, product.Name, product.Price, product.Owner, product.Purchased, product.CreatedAt, product.UpdatedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao inserir produto", err)
	}

	// 3. Registrar o evento na mesma transação
	event := domain.NewProductEvent(uuid.NewString(), domain.EventProductCreated, product, now)
	if event.Sequence, err = r.insertEvent(ctxTimeout, tx, event); err != nil {
		return domain.ProductEvent{}, err
	}

	// 4. Commit
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de criação de produto.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"product_id": id, "owner": owner})
	return event, nil
}

// Purchase executa a compra de forma atômica: bloqueia o produto (FOR UPDATE), valida as regras,
// debita o comprador, credita o vendedor, transfere a propriedade e grava o evento.
// Qualquer falha desfaz a transação inteira.
func (r *ProductRepository) Purchase(ctx context.Context, req domain.PurchaseRequest) (domain.ProductEvent, error) {
	fields := map[string]interface{}{"product_id": req.ProductID, "buyer": req.Buyer, "payment": req.Payment}
	r.logger.Debug("Iniciando compra de produto no repositório.", fields)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de compra.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	// 1. Carregar o produto com lock de linha; compras concorrentes esperam aqui.
	product, err := scanProduct(tx.QueryRowContext(ctxTimeout, selectProductSQL+" FOR UPDATE", req.ProductID))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Warn("Compra de produto inexistente.", fields)
		return domain.ProductEvent{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", req.ProductID))
	}
	if err != nil {
		r.logger.Error("Falha ao carregar produto para compra.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao buscar produto para compra", err)
	}

	// 2. Regras de negócio (pagamento, já vendido, auto-compra)
	if err := product.CheckPurchase(req.Buyer, req.Payment); err != nil {
		r.logger.Warn("Compra rejeitada.", map[string]interface{}{"product_id": req.ProductID, "buyer": req.Buyer, "reason": err.Error()})
		return domain.ProductEvent{}, err
	}
	seller := product.Owner
	now := time.Now().UTC()

	// 3. Transferência de fundos. As contas são bloqueadas em ordem fixa para evitar deadlock.
	if err := r.lockAccounts(ctxTimeout, tx, req.Buyer, seller); err != nil {
		return domain.ProductEvent{}, err
	}
	if err := r.execExpectingRow(ctxTimeout, tx, debitSQL, "saldo insuficiente ou conta do comprador inexistente", req.Payment, now, req.Buyer); err != nil {
		return domain.ProductEvent{}, err
	}
	if err := r.execExpectingRow(ctxTimeout, tx, creditSQL, "conta do vendedor inexistente", req.Payment, now, seller); err != nil {
		return domain.ProductEvent{}, err
	}

	// 4. Transição Listed -> Sold
	sold := product.Sell(req.Buyer, now)
	result, err := tx.ExecContext(ctxTimeout, markSoldSQL, sold.Owner, sold.UpdatedAt, sold.ID)
	if err != nil {
		r.logger.Error("Falha ao marcar produto como vendido.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao atualizar produto", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	} else if rows == 0 {
		return domain.ProductEvent{}, apperror.NewAlreadySoldError(sold.ID)
	}

	// 5. Evento. O lock do registro serializa a gravação com Create, então a ordem de
	// commit segue a ordem de sequence e um leitor do log nunca pula um evento.
	if err := r.lockRegistry(ctxTimeout, tx); err != nil {
		return domain.ProductEvent{}, err
	}
	event := domain.NewProductEvent(uuid.NewString(), domain.EventProductPurchased, sold, now)
	event.Payment = req.Payment
	event.Seller = seller
	if event.Sequence, err = r.insertEvent(ctxTimeout, tx, event); err != nil {
		return domain.ProductEvent{}, err
	}

	// 6. Commit
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de compra.", err)
		return domain.ProductEvent{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctx, sold.ID)
	r.logger.Info("Produto comprado com sucesso.", map[string]interface{}{
		"product_id": sold.ID,
		"buyer":      req.Buyer,
		"seller":     seller,
		"payment":    req.Payment,
	})
	return event, nil
}

// lockAccounts usa FOR NO KEY UPDATE, que não conflita com o KEY SHARE tomado pela
// FK de products em Create (que já segura o registro).
func (r *ProductRepository) lockAccounts(ctx context.Context, tx *sql.Tx, buyer, seller string) error {
	rows, err := tx.QueryContext(ctx, lockAccountsSQL, buyer, seller)
	if err != nil {
		r.logger.Error("Falha ao bloquear contas para transferência.", err)
		return apperror.NewDBError("Falha ao bloquear contas", err)
	}
	defer rows.Close()

	var id string
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return apperror.NewDBError("Falha ao bloquear contas", err)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.NewDBError("Falha ao bloquear contas", err)
	}
	return nil
}

func (r *ProductRepository) lockRegistry(ctx context.Context, tx *sql.Tx) error {
	var count int64
	if err := tx.QueryRowContext(ctx, lockRegistrySQL).Scan(&count); err != nil {
		r.logger.Error("Falha ao bloquear o registro para gravar o evento.", err)
		return apperror.NewDBError("Falha ao bloquear o registro", err)
	}
	return nil
}

// execExpectingRow executa um UPDATE de saldo; nenhuma linha afetada vira TransferError.
func (r *ProductRepository) execExpectingRow(ctx context.Context, tx *sql.Tx, query, failure string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Falha ao movimentar saldo.", err)
		return apperror.NewTransferError("erro ao movimentar saldo", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		r.logger.Warn("Transferência recusada.", map[string]interface{}{"reason": failure})
		return apperror.NewTransferError(failure, nil)
	}
	return nil
}

func (r *ProductRepository) insertEvent(ctx context.Context, tx *sql.Tx, event domain.ProductEvent) (int64, error) {
	var seller sql.NullString
	if event.Seller != "" {
		seller = sql.NullString{String: event.Seller, Valid: true}
	}

	var sequence int64
	err := tx.QueryRowContext(ctx, insertEventSQL,
		event.EventID, string(event.Type), event.ProductID, event.Name, event.Price,
		event.Owner, event.Purchased, event.Payment, seller, event.OccurredAt,
	).Scan(&sequence)
	if err != nil {
		r.logger.Error("Falha ao gravar evento de produto.", err)
		return 0, apperror.NewDBError("Falha ao gravar evento", err)
	}
	return sequence, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside para produtos vendidos.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Cache-Aside (READ)
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctxTimeout, key)
		if err == nil {
			if json.Unmarshal([]byte(cached), &product) == nil {
				return product, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	// 2. Busca no Banco de Dados
	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, selectProductSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Cache-Aside (WRITE). Só produtos vendidos são imutáveis; um produto à venda lido
	// aqui pode ser comprado antes do Set e ficaria obsoleto no cache até o TTL.
	if r.Cache != nil && product.Purchased {
		if data, err := json.Marshal(product); err == nil {
			if err := r.Cache.Set(ctxTimeout, key, data, r.CacheTTL); err != nil {
				r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
	}

	return product, nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id int64) {
	if r.Cache == nil {
		return
	}
	key := fmt.Sprintf(productCacheKey, id)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// FindAll lista os produtos em ordem de ID.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, listProductsSQL, filter.Limit, filter.Offset())
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar produtos", err)
	}
	return products, nil
}

// Count retorna o número de produtos já criados (também o último ID atribuído).
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var count int64
	if err := r.DB.QueryRowContext(ctxTimeout, countSQL).Scan(&count); err != nil {
		r.logger.Error("Falha ao ler contador de produtos.", err)
		return 0, apperror.NewDBError("Falha ao ler contador de produtos", err)
	}
	return count, nil
}

// ListEvents lê o log durável de eventos a partir de uma sequência.
func (r *ProductRepository) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.ProductEvent, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, listEventsSQL, filter.After, filter.Limit)
	if err != nil {
		r.logger.Error("Falha ao listar eventos.", err)
		return nil, apperror.NewDBError("Falha ao listar eventos", err)
	}
	defer rows.Close()

	events := make([]domain.ProductEvent, 0, filter.Limit)
	for rows.Next() {
		var (
			ev        domain.ProductEvent
			eventType string
			seller    sql.NullString
		)
		if err := rows.Scan(&ev.Sequence, &ev.EventID, &eventType, &ev.ProductID, &ev.Name, &ev.Price,
			&ev.Owner, &ev.Purchased, &ev.Payment, &seller, &ev.OccurredAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler evento", err)
		}
		ev.Type = domain.EventType(eventType)
		ev.Seller = seller.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar eventos", err)
	}
	return events, nil
}
