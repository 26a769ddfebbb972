package ics

// DefaultLocation is the venue emitted when an event has no location of
// its own. A configured default always wins over an empty LOCATION field.
const DefaultLocation = "PLOT F/23 SANI ABACHA ROAD, GRA PHASE III, PORTHARCOURT"

// DescriptionFooter is appended unconditionally to every exported event
// description so each event carries the same contact, social media and
// livestream information regardless of content.
const DescriptionFooter = `

---

MORE INFORMATION

SOCIAL MEDIA
Facebook: https://www.facebook.com/houseontherockportharcourt
Instagram: https://www.instagram.com/hotrportharcourt
TikTok: https://www.tiktok.com/@hotrportharcourt

OFFICIAL WEBSITE
https://www.hotrportharcourt.com

CONTACT US
Phone: +234 903 989 3477
WhatsApp: +234 809 111 8522

OFFICIAL WHATSAPP CHANNEL
Get church flyers, service invites, and videos to share!
https://whatsapp.com/channel/0029Va4Ul825kg7Az6a5T03e

LIVESTREAM LINKS
Facebook: https://www.facebook.com/houseontherockportharcourt
YouTube: https://youtube.com/@houseontherockportharcourt
iRadio: https://www.heritageiradio.com

ATTENDANCE & REGISTRATION
Get barcode for check-in: https://www.member.hotrportharcourt.com

---
House on the Rock, Port Harcourt`
