// Package mqttstore implements configstore.Store and
// configstore.TagRegistry by publishing retained JSON messages to an MQTT
// broker.
//
// Config updates go to <prefix>/<deviceId>/config and carry the merged
// record, so a late subscriber sees the current state. Tag records go to
// <prefix>/<deviceId>/tags/<id>. The store keeps the merged records
// locally and answers reads from them; nothing is read back from the
// broker.
package mqttstore
