// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import "sync"

// Subscriber receives published messages on its own channel; the dispatcher
// owns draining it into the client's connection.
type Subscriber struct {
	ID string
	Ch chan PubSubMessage
}

// PubSubMessage is one delivered message: the channel it was published on
// and the payload bytes.
type PubSubMessage struct {
	Channel string
	Payload []byte
}

// PubSubEngine tracks channel subscriptions. It holds two maps, one by
// channel (to fan a PUBLISH out to every subscriber) and one by subscriber
// ID (to unsubscribe everything for a closing connection in one pass).
type PubSubEngine struct {
	mu            sync.Mutex
	byChannel     map[string]map[string]*Subscriber
	channelsOfSub map[string]map[string]struct{}
}

// NewPubSubEngine creates an empty pub/sub engine.
func NewPubSubEngine() *PubSubEngine {
	return &PubSubEngine{
		byChannel:     make(map[string]map[string]*Subscriber),
		channelsOfSub: make(map[string]map[string]struct{}),
	}
}

// Subscribe registers sub to channel, creating both sides of the index.
func (e *PubSubEngine) Subscribe(channel string, sub *Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.byChannel[channel] == nil {
		e.byChannel[channel] = make(map[string]*Subscriber)
	}
	e.byChannel[channel][sub.ID] = sub
	if e.channelsOfSub[sub.ID] == nil {
		e.channelsOfSub[sub.ID] = make(map[string]struct{})
	}
	e.channelsOfSub[sub.ID][channel] = struct{}{}
}

// Unsubscribe removes subID from channel. If channel is empty, it is
// removed from every channel it was subscribed to.
func (e *PubSubEngine) Unsubscribe(subID string, channel string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if channel != "" {
		e.unsubscribeOneLocked(subID, channel)
		return
	}
	for ch := range e.channelsOfSub[subID] {
		e.unsubscribeOneLocked(subID, ch)
	}
}

func (e *PubSubEngine) unsubscribeOneLocked(subID, channel string) {
	if subs, ok := e.byChannel[channel]; ok {
		delete(subs, subID)
		if len(subs) == 0 {
			delete(e.byChannel, channel)
		}
	}
	if chans, ok := e.channelsOfSub[subID]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(e.channelsOfSub, subID)
		}
	}
}

// Channels returns the channels subID is currently subscribed to.
func (e *PubSubEngine) Channels(subID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.channelsOfSub[subID]))
	for ch := range e.channelsOfSub[subID] {
		out = append(out, ch)
	}
	return out
}

// Publish delivers payload to every subscriber of channel except excludeID
// (the publisher itself never receives its own message), returning the
// number of subscribers it was delivered to.
func (e *PubSubEngine) Publish(channel string, payload []byte, excludeID string) int {
	e.mu.Lock()
	subs := make([]*Subscriber, 0, len(e.byChannel[channel]))
	for id, sub := range e.byChannel[channel] {
		if id == excludeID {
			continue
		}
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Ch <- PubSubMessage{Channel: channel, Payload: payload}
	}
	return len(subs)
}
