// The [mirror] package keeps a local, copy-on-write mirror of a dataspace
// backend: spaces, the datasets inside them, their files, annotations on
// those files, activity, users, bots and boards.
//
// # State
//
// All state lives in a [store.Store], replaced on every change by the
// dispatch/reduce protocol of [store.Context]. A [Client] never mutates a
// record it handed out; it issues the network call and dispatches the
// result.
//
// # Action creators
//
// Every Client method that writes to the backend follows the same shape:
// validate the arguments, send the request, dispatch CREATE, UPDATE, DELETE
// or LOAD with the returned records, and return them. When any step fails
// an ERROR action carrying the message and HTTP status is dispatched as
// well, so observers of the store see the failure without holding the
// returned error.
//
// Validation failures wrap [constants.ErrValidation] and never reach the
// network. A successful response without items wraps
// [constants.ErrEmptyResultSet]. Transport failures are
// *[connection.HTTPError].
//
// # Datasets
//
// [Client.LoadDataset] runs the ingestion pipeline of [ingest]: file
// contents are downloaded in parallel, gzip content is inflated, zip and tar
// archives are replaced by their members and a text index is built for
// [Client.Search].
//
// # Live updates
//
// [Client.Watch] applies the backend's websocket feed to the store.
package mirror
