// Package integrity hashes and signs journal events so tampering with a
// realm's history is detectable. Each event's hash folds in its
// predecessor's, and an HMAC keyring signs the result; the keyring supports
// rotation, so old events still verify under the key that signed them.
package integrity
