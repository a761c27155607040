// Package realtime carries location updates between connected clients over
// websockets.
//
// Every frame is a JSON envelope {"event": ..., "data": ...}. Clients send
// "locationUpdate" with {userId, coords{latitude, longitude}}; once the
// position is stored every other connection receives "newLocation" with the
// username attached. Invalid updates are logged and dropped without a reply.
//
// Inbound events are handed to a queue.Dispatcher, which shards by
// connection so one client's updates are applied and broadcast in order.
package realtime
