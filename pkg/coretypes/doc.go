// Package coretypes defines the shared contracts of the CoreLab core layer.
//
// Apps share one process, one data store and one AI backend. They talk to each
// other through the types declared here, never through each other's packages:
//
//   - Events (event.go): the envelope emitted on the bus and the handler type
//     subscribers register.
//   - Apps (app.go): registration records kept by the app registry.
//   - AI (ai.go): the provider capability contract and its request/response shapes.
//   - Entities (entities.go): persons, conversations and memories held by the store.
//   - Errors (errors.go): the error taxonomy every core operation reports through.
package coretypes
