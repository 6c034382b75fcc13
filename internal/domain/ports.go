package domain

import (
	"context"
	"time"
)

// KeyValueStore описывает общее TTL-хранилище, через которое этапы конвейера
// обмениваются состоянием. Семантика нарочно минимальная: нет compare-and-swap,
// нет транзакций. Вызывающая сторона обязана переживать отсутствие значения
// (ещё не видно или истёк TTL) и не полагаться на атомарность между чтением
// и последующей записью другого этапа.
type KeyValueStore interface {
	// Put сохраняет значение с указанным TTL. ttl <= 0 означает запись без срока.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get возвращает значение или ErrKeyNotFound, если его нет.
	Get(ctx context.Context, key string) (string, error)
}

// EventPublisher публикует события конвейера в шину. Publish только ставит
// сообщение в очередь отправки: результат доставки наблюдается асинхронно
// (логируется и считается в метриках), вызывающая сторона не блокируется
// и не повторяет отправку синхронно.
type EventPublisher interface {
	Publish(topic, key string, event any) error
}
