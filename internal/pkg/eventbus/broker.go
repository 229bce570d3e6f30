// Package eventbus distribui eventos confirmados para assinantes em processo.
package eventbus

import (
	"context"
	"sync"
)

const defaultBufferSize = 64

// Broker é um pub/sub genérico em memória.
// Publish nunca bloqueia: assinantes com buffer cheio perdem o evento
// e recuperam a lacuna pelo log durável (ver product.StreamEventsHandler).
type Broker[T any] struct {
	subs       map[chan T]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// NewBroker cria um broker com o buffer padrão (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer cria um broker com buffer customizado por assinante.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan T]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe cria um canal de assinatura, fechado automaticamente quando ctx é cancelado.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan T)
		close(ch)
		return ch
	default:
	}

	sub := make(chan T, b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Já fechado por Close
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish envia o evento a todos os assinantes e devolve quantos o perderam
// por estarem com o buffer cheio.
func (b *Broker[T]) Publish(event T) (dropped int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return 0
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	return dropped
}

// Close encerra o broker e fecha todos os canais.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount retorna o número de assinantes ativos.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
