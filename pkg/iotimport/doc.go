// Package iotimport exposes a hal.Platform with the calling convention the
// device SDK was written against: integer results of 0 on success and -1 on
// failure, the zero handle for failed creates, capacity-in/length-out buffer
// lengths and fixed-size MAC and address buffers.
//
// Operations that return nothing in that convention log failures instead.
package iotimport
