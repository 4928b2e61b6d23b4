// Package messaging publishes domain events to a message broker.
//
// Kafka, NATS, NSQ and Google Pub/Sub are supported behind the Publisher
// interface. The broker is picked by name at startup, so event producers
// stay unaware of which one is running.
package messaging
